package callback

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/nhle/translation-connector/internal/bigword"
	"github.com/nhle/translation-connector/internal/model"
	"github.com/nhle/translation-connector/internal/xliff"
)

// scriptedAPI serves exactly one remote file and records how the handler
// touches the vendor.
type scriptedAPI struct {
	t    *testing.T
	job  *model.Job
	info bigword.FileInfo

	fileInfoCalls  int
	fileInfosState model.FileState
	acks           []string
}

var _ bigword.API = (*scriptedAPI)(nil)

func (s *scriptedAPI) FileInfo(ctx context.Context, fileID string) (*bigword.FileInfo, error) {
	s.fileInfoCalls++
	if fileID != s.info.FileID.String() {
		return nil, fmt.Errorf("no scripted info for file %s", fileID)
	}
	info := s.info
	return &info, nil
}

func (s *scriptedAPI) FileInfos(ctx context.Context, state model.FileState) ([]bigword.FileInfo, error) {
	s.fileInfosState = state
	if state != s.info.FileState {
		return nil, nil
	}
	return []bigword.FileInfo{s.info}, nil
}

// DownloadFile renders the scripted job item as a translated document.
func (s *scriptedAPI) DownloadFile(
	ctx context.Context,
	state model.FileState,
	fileID string,
) ([]byte, error) {
	if fileID != s.info.FileID.String() {
		return nil, fmt.Errorf("no scripted content for file %s", fileID)
	}

	format := &xliff.XLIFF12{}
	item := &s.job.Items[0]
	out, err := format.Export(s.job, item)
	if err != nil {
		return nil, err
	}
	doc := string(out)
	for _, source := range item.Data {
		doc = strings.Replace(doc,
			"<target>"+source+"</target>", "<target>XX "+source+"</target>", 1)
	}
	return []byte(doc), nil
}

func (s *scriptedAPI) ConfirmDownloaded(ctx context.Context, fileID string, state model.FileState) error {
	s.acks = append(s.acks, fileID)
	return nil
}

func (s *scriptedAPI) CreateProject(ctx context.Context, req bigword.ProjectRequest) (string, error) {
	return "", fmt.Errorf("not scripted")
}

func (s *scriptedAPI) UploadFile(ctx context.Context, req bigword.FileRequest) (string, error) {
	return "", fmt.Errorf("not scripted")
}

func (s *scriptedAPI) UpdateFile(ctx context.Context, req bigword.FileRequest) (string, error) {
	return req.FileIDToUpdate, nil
}

func (s *scriptedAPI) ConfirmUploaded(
	ctx context.Context,
	projectID string,
	state model.FileState,
) (int, error) {
	return 0, nil
}

func (s *scriptedAPI) Languages(ctx context.Context) ([]bigword.Language, error) {
	return nil, nil
}
