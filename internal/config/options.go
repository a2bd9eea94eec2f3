package config

// RunOptions carries the subset of CLI run flags that affect the core
// pipeline. Flag parsing itself lives outside this module;
// a CLI layer constructs one of these and passes it to the pipeline
// engine.
type RunOptions struct {
	ToLang          string
	FromLang        string // forced source language override; a cached detected language wins on hit
	SentenceAware   bool
	Proofread       bool
	ProofreadOnly   bool
	NoTranslate     bool
	Bilingual       bool
	Embed           bool
	ForceTranscribe bool
	SaveProjectPath string
	LoadProjectPath string
	StylePreset     string
	PrimaryFont     string
	PrimaryColor    string
	SecondaryFont   string
	SecondaryColor  string
	OutputPath      string
	Debug           bool
}

// Clone returns a deep copy of o. RunOptions currently has no reference
// fields, but Clone exists so call sites never need to know that and can
// rely on value-copy semantics uniformly.
func (o RunOptions) Clone() RunOptions { return o }
