package clientcli

// UploadOptions configures an upload operation.
type UploadOptions struct {
	Paths    []string
	Name     string // overrides the base name; single path only
	Password string
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath string `json:"local_path"`
	Filename  string `json:"filename"`
	FileLink  string `json:"file_link"`
	Size      int64  `json:"size_bytes"`
	Err       error  `json:"-"` // nil on success
}

// ReadResult is the content of one item.
type ReadResult struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	FileLink string `json:"file_link"`
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	Filename  string
	Password  string
	LocalPath string // empty = filename in the working directory, "-" = stdout
}

// DownloadResult represents the result of downloading a file.
type DownloadResult struct {
	Filename    string `json:"filename"`
	LocalPath   string `json:"local_path"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size_bytes"`
}

// SearchResult lists stored filenames in server order.
type SearchResult struct {
	Filenames []string `json:"filenames"`
}

// serverUploadResponse mirrors the JSON response of POST /api/upload.
type serverUploadResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
	FileLink string `json:"fileLink"`
}

// serverReadResponse mirrors the JSON response of GET /api/read.
type serverReadResponse struct {
	Content  string `json:"content"`
	FileLink string `json:"fileLink"`
}

// serverError mirrors the JSON error body.
type serverError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
