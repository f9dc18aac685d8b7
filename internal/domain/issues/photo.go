package issues

// Photo is one of StoredOnDisk or StoredInline. A nil Photo means none.
type Photo interface {
	isPhoto()
	MIME() string
}

// StoredOnDisk references a file relative to the upload root.
type StoredOnDisk struct {
	Path        string
	ContentType string
}

// StoredInline is a legacy photo kept as a blob in the issue row.
type StoredInline struct {
	Data        []byte
	ContentType string
}

func (StoredOnDisk) isPhoto() {}
func (StoredInline) isPhoto() {}

func (p StoredOnDisk) MIME() string { return p.ContentType }
func (p StoredInline) MIME() string { return p.ContentType }
