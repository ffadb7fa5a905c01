package bigword

import (
	"encoding/json"

	"github.com/nhle/translation-connector/internal/model"
)

// MetadataEntry is one key/value pair of project metadata. The vendor
// schema for metadata values is not contractually fixed, so values stay
// plain strings.
type MetadataEntry struct {
	MetadataKey   string `json:"MetadataKey"`
	MetadataValue string `json:"MetadataValue"`
}

// ProjectRequest is the body of POST project.
type ProjectRequest struct {
	PurchaseOrderNumber string          `json:"PurchaseOrderNumber"`
	ProjectReference    string          `json:"ProjectReference"`
	RequiredByDateUtc   string          `json:"RequiredByDateUtc"`
	QuoteRequired       string          `json:"QuoteRequired"`
	SpecialismID        int             `json:"SpecialismId"`
	ProjectMetadata     []MetadataEntry `json:"ProjectMetadata"`
}

// FileRequest is the body of POST file and PUT file. FileIDToUpdate is set
// only for PUT.
type FileRequest struct {
	ProjectID         string          `json:"ProjectId"`
	RequiredByDateUtc string          `json:"RequiredByDateUtc"`
	SourceLanguage    string          `json:"SourceLanguage"`
	TargetLanguage    string          `json:"TargetLanguage"`
	FilePathAndName   string          `json:"FilePathAndName"`
	FileState         model.FileState `json:"FileState"`
	FileData          string          `json:"FileData"`
	FileIDToUpdate    string          `json:"FileIdToUpdate,omitempty"`
}

// confirmRequest is the body of POST fileinfos/uploaded.
type confirmRequest struct {
	ProjectID string          `json:"ProjectId"`
	FileState model.FileState `json:"FileState"`
}

// downloadedRequest is the body of POST fileinfo/downloaded.
type downloadedRequest struct {
	FileID    string          `json:"FileId"`
	FileState model.FileState `json:"FileState"`
}

// FileInfo is one entry of GET fileinfos/{state} and the response of
// GET fileinfo/{fileId}. File and project ids are opaque; the vendor has
// returned both numbers and strings across API generations.
type FileInfo struct {
	FileID           json.Number     `json:"FileId"`
	ProjectID        json.Number     `json:"ProjectId"`
	FileState        model.FileState `json:"FileState"`
	FileStateVersion int             `json:"FileStateVersion"`
}

// fileDownload is the response of GET file/{state}/{fileId}. FileData is
// base64-encoded.
type fileDownload struct {
	FileID   json.Number `json:"FileId"`
	FileData string      `json:"FileData"`
}

// Language is one entry of GET languages.
type Language struct {
	CultureName string `json:"CultureName"`
	DisplayName string `json:"DisplayName"`
}
