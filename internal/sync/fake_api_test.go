package sync

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/nhle/translation-connector/internal/bigword"
	"github.com/nhle/translation-connector/internal/model"
)

// decodeBase64 decodes a wire-form file payload for assertions.
func decodeBase64(t *testing.T, data string) string {
	t.Helper()

	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		t.Fatalf("decoding base64 payload: %v", err)
	}
	return string(decoded)
}

// confirmCall records one ConfirmUploaded invocation.
type confirmCall struct {
	ProjectID string
	State     model.FileState
}

// fakeAPI is an in-memory vendor API recording every call for assertions.
type fakeAPI struct {
	nextProjectID int
	nextFileID    int

	projectReqs  []bigword.ProjectRequest
	uploadReqs   []bigword.FileRequest
	updateReqs   []bigword.FileRequest
	confirmCalls []confirmCall

	// confirmCounts holds the count returned per confirmed state. States
	// without an entry confirm everything the fake saw uploaded.
	confirmCounts map[model.FileState]int

	infos     map[model.FileState][]bigword.FileInfo
	downloads map[string][]byte
	acks      []string

	createProjectErr error
	uploadErr        error
	downloadErr      error
}

var _ bigword.API = (*fakeAPI)(nil)

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		confirmCounts: make(map[model.FileState]int),
		infos:         make(map[model.FileState][]bigword.FileInfo),
		downloads:     make(map[string][]byte),
	}
}

func (f *fakeAPI) CreateProject(ctx context.Context, req bigword.ProjectRequest) (string, error) {
	if f.createProjectErr != nil {
		return "", f.createProjectErr
	}
	f.projectReqs = append(f.projectReqs, req)
	f.nextProjectID++
	return fmt.Sprintf("%d", 100*f.nextProjectID), nil
}

func (f *fakeAPI) UploadFile(ctx context.Context, req bigword.FileRequest) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploadReqs = append(f.uploadReqs, req)
	f.nextFileID++
	return fmt.Sprintf("file-%d", f.nextFileID), nil
}

func (f *fakeAPI) UpdateFile(ctx context.Context, req bigword.FileRequest) (string, error) {
	f.updateReqs = append(f.updateReqs, req)
	return req.FileIDToUpdate, nil
}

func (f *fakeAPI) ConfirmUploaded(
	ctx context.Context,
	projectID string,
	state model.FileState,
) (int, error) {
	f.confirmCalls = append(f.confirmCalls, confirmCall{ProjectID: projectID, State: state})
	if count, ok := f.confirmCounts[state]; ok {
		return count, nil
	}
	return len(f.uploadReqs), nil
}

func (f *fakeAPI) FileInfos(ctx context.Context, state model.FileState) ([]bigword.FileInfo, error) {
	return f.infos[state], nil
}

func (f *fakeAPI) FileInfo(ctx context.Context, fileID string) (*bigword.FileInfo, error) {
	for _, infos := range f.infos {
		for i := range infos {
			if infos[i].FileID.String() == fileID {
				return &infos[i], nil
			}
		}
	}
	return nil, fmt.Errorf("no fake info for file %s", fileID)
}

func (f *fakeAPI) DownloadFile(
	ctx context.Context,
	state model.FileState,
	fileID string,
) ([]byte, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	data, ok := f.downloads[fileID]
	if !ok {
		return nil, fmt.Errorf("no fake content for file %s", fileID)
	}
	return data, nil
}

func (f *fakeAPI) ConfirmDownloaded(ctx context.Context, fileID string, state model.FileState) error {
	f.acks = append(f.acks, fileID)
	return nil
}

func (f *fakeAPI) Languages(ctx context.Context) ([]bigword.Language, error) {
	return []bigword.Language{
		{CultureName: "en-GB", DisplayName: "English (United Kingdom)"},
		{CultureName: "fr-FR", DisplayName: "French (France)"},
	}, nil
}
