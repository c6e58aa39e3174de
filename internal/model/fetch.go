package model

// FetchInfo describes a fetched binary payload: the file extension the
// remote suggested for it and the reported size in bytes (0 if unknown).
type FetchInfo struct {
	Extension string
	Size      int64
}
