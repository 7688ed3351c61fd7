package domain

import "time"

// Folder groups QR codes
type Folder struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}

// FolderSummary is the subset of a folder embedded in QR code payloads
type FolderSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CreateFolderRequest is the body of POST /api/folders
type CreateFolderRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}
