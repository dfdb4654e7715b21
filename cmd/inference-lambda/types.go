package main

// InferenceEvent is the direct-invocation payload sent by the
// categorization Glue job with the sampled rows and discovered schema.
type InferenceEvent struct {
	Data     []map[string]any `json:"data"`
	Schema   []string         `json:"schema"`
	FileName string           `json:"file_name"`
}

// InferenceResponse is returned to the invoking job. Failures are reported
// in Error rather than as an invocation error so the Glue job can log the
// outcome and finish instead of retrying.
type InferenceResponse struct {
	SuggestedCategories  []string       `json:"suggested_categories,omitempty"`
	Reasoning            string         `json:"reasoning,omitempty"`
	SegmentationCriteria map[string]any `json:"segmentation_criteria,omitempty"`
	GeneratedScript      string         `json:"generated_script,omitempty"`
	ScriptPath           string         `json:"script_path,omitempty"`
	FileID               string         `json:"file_id,omitempty"`
	Message              string         `json:"message,omitempty"`
	Error                string         `json:"error,omitempty"`
}
