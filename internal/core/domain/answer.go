package domain

// Answer is the result of a question answered over retrieved context.
type Answer struct {
	// Response is the generated text.
	Response string `json:"response"`

	// Sources are the snippets the prompt was built from, in ranked order.
	Sources []RetrievalResult `json:"sources,omitempty"`
}

// FileInfo describes an uploaded file.
type FileInfo struct {
	OriginalName string `json:"original_name"`
	Size         int64  `json:"size"`
	TextLength   int    `json:"text_length"`
}

// UploadResult is returned after an uploaded file has been ingested.
type UploadResult struct {
	Success  bool     `json:"success"`
	Chunks   int      `json:"chunks"`
	Message  string   `json:"message"`
	FileInfo FileInfo `json:"file_info"`
}

// DefaultAnswerPrompt frames retrieved context for the generator.
// The first %s receives the context, the second the question.
const DefaultAnswerPrompt = "Use the following context to answer the question. " +
	"If the answer cannot be found in the context, use your own knowledge base.\n\n" +
	"Context:\n%s\n\nQuestion: %s\n\nAnswer:"
