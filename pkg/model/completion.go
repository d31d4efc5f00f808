package model

// Message is one chat message of a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the pipeline input. It lives for a single call.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Temperature float32
	N           uint32
	OrgUID      string
	ProjectUID  string
	// Wallet is the authenticated caller, recorded in the call log only.
	Wallet string
}

// ChoiceMessage is the assistant message of a choice.
type ChoiceMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Choice is one generated completion.
type Choice struct {
	Index        int           `json:"index"`
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

// CompletionResult is the pipeline output. CurrentExpenditure is the
// organization's expenditure before this call was charged. PromptTokens is
// the byte length of the joined prompt, not a tokenizer count.
type CompletionResult struct {
	Choices            []Choice
	TotalCost          uint64
	CurrentExpenditure uint64
	PromptTokens       uint64
	OrgID              int64
	ProjectID          int64
}
