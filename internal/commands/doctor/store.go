package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hay-kot/chatbox/internal/store/jsonfile"
)

// StoreCheck inspects the data directory and the message log on disk.
type StoreCheck struct {
	dataDir     string
	maxMessages int
}

// NewStoreCheck creates a check for the store rooted at dataDir.
func NewStoreCheck(dataDir string, maxMessages int) *StoreCheck {
	return &StoreCheck{dataDir: dataDir, maxMessages: maxMessages}
}

func (c *StoreCheck) Name() string {
	return "Message Store"
}

func (c *StoreCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	info, err := os.Stat(c.dataDir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		result.Items = append(result.Items, CheckItem{
			Label:  "Data directory",
			Status: StatusPass,
			Detail: "not created yet (created on first serve)",
		})
		return result
	case err != nil:
		result.Items = append(result.Items, CheckItem{
			Label:  "Data directory",
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	case !info.IsDir():
		result.Items = append(result.Items, CheckItem{
			Label:  "Data directory",
			Status: StatusFail,
			Detail: c.dataDir + " is not a directory",
		})
		return result
	}

	result.Items = append(result.Items, CheckItem{
		Label:  "Data directory",
		Status: StatusPass,
		Detail: c.dataDir,
	})

	path := filepath.Join(c.dataDir, jsonfile.MessagesFileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		result.Items = append(result.Items, CheckItem{
			Label:  jsonfile.MessagesFileName,
			Status: StatusPass,
			Detail: "not created yet",
		})
		return result
	}

	messages, err := jsonfile.ReadMessages(path)
	if err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  jsonfile.MessagesFileName,
			Status: StatusFail,
			Detail: fmt.Sprintf("%v (the server will start with an empty log)", err),
		})
		return result
	}

	var lastID int64
	for _, m := range messages {
		lastID = max(lastID, m.ID)
	}

	result.Items = append(result.Items, CheckItem{
		Label:  jsonfile.MessagesFileName,
		Status: StatusPass,
		Detail: fmt.Sprintf("%d message(s), last id %d", len(messages), lastID),
	})

	if c.maxMessages > 0 && len(messages) > c.maxMessages {
		result.Items = append(result.Items, CheckItem{
			Label:  "Retention",
			Status: StatusWarn,
			Detail: fmt.Sprintf("%d messages exceed max_messages %d; the oldest are dropped on next start", len(messages), c.maxMessages),
		})
	}

	if _, err := os.Stat(path + ".tmp"); err == nil {
		result.Items = append(result.Items, CheckItem{
			Label:  jsonfile.MessagesFileName + ".tmp",
			Status: StatusWarn,
			Detail: "leftover from an interrupted write",
		})
	}

	return result
}
