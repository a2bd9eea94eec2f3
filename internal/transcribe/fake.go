package transcribe

import "context"

// FakeRecognizer is a deterministic Recognizer for pipeline tests.
type FakeRecognizer struct {
	NameV  string
	Result Result
	Err    error
}

func (f *FakeRecognizer) Name() string { return f.NameV }

func (f *FakeRecognizer) Transcribe(context.Context, string, Options) (Result, error) {
	if f.Err != nil {
		return Result{}, f.Err
	}
	return f.Result, nil
}
