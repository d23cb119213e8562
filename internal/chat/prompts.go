package chat

// rewritePrompt turns a history-dependent question into a standalone one
// so retrieval works without the conversation context.
const rewritePrompt = "Given a chat history and the latest user question " +
	"which might reference context in the chat history, " +
	"formulate a standalone question which can be understood " +
	"without the chat history. Do NOT answer the question, " +
	"just reformulate it if needed and otherwise return it as is."

// synthesisPrompt frames the retrieved chunks for answer generation.
// The retrieved context is appended after the instructions.
const synthesisPrompt = "You are an assistant for question-answering tasks. " +
	"Use the following pieces of retrieved context to answer " +
	"the question. If you don't know the answer, say that you " +
	"don't know. Use three sentences maximum and keep the " +
	"answer concise." +
	"\n\n%s"
