package models

// UploadInput is the body of POST /api/upload. Data is a data URL or a bare base64 string.
type UploadInput struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType,omitempty"`
	Data     string `json:"data"`
}

// UploadedAsset describes a stored blob.
type UploadedAsset struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	Size     int64  `json:"size"`
	// StoredName is the on-disk name; it is the last element of URL.
	StoredName string `json:"-"`
}

// AssetText is the response of GET /api/uploads/{name}/text.
type AssetText struct {
	FileName string `json:"fileName"`
	Text     string `json:"text"`
}

// SyncWriteResult is the response of POST /api/sync.
type SyncWriteResult struct {
	OK        bool   `json:"ok"`
	UpdatedAt string `json:"updatedAt"`
}

// Status is the response of GET /api/status.
type Status struct {
	Provider       string  `json:"provider"`
	Model          string  `json:"model"`
	StorageBackend string  `json:"storage_backend"`
	SyncUpdatedAt  *string `json:"sync_updated_at"`
	Uploads        int     `json:"uploads"`
	UploadBytes    int64   `json:"upload_bytes"`
	DiskUsageBytes *int64  `json:"disk_usage_bytes,omitempty"`
	AuthRequired   bool    `json:"auth_required"`
}
