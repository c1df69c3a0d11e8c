package harness

// Outcome is the result of one harness run: a tree on success, an error otherwise.
type Outcome struct {
	Tree Tree
	Err  error
}

func Success(tree Tree) Outcome {
	return Outcome{Tree: tree}
}

func Failure(err error) Outcome {
	return Outcome{Err: err}
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

// Message is the failure description, empty on success.
func (o Outcome) Message() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// String is the line printed after the run.
func (o Outcome) String() string {
	if o.OK() {
		return SuccessMessage
	}
	return "Error: " + o.Message()
}
