package types

// ModelSpec describes a pretrained model the runtime knows how to fetch.
type ModelSpec struct {
	// Short name used in configuration.
	Name string `json:"name"`
	// File name of the weights inside the model directory.
	FileName string `json:"file_name"`
	// Download location of the weights.
	URL string `json:"url"`
	// Expected SHA-256 of the weights; empty skips verification.
	SHA256 string `json:"sha256,omitempty"`
}
