package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/hay-kot/chatbox/internal/store/jsonfile"
)

// OrphanCheck detects image files that no retained message refers to.
type OrphanCheck struct {
	dataDir string
	minAge  time.Duration
	fix     bool
	now     func() time.Time
}

// NewOrphanCheck creates a new orphan image check.
// If fix is true, orphaned images will be deleted.
func NewOrphanCheck(dataDir string, minAge time.Duration, fix bool) *OrphanCheck {
	return &OrphanCheck{
		dataDir: dataDir,
		minAge:  minAge,
		fix:     fix,
		now:     time.Now,
	}
}

func (c *OrphanCheck) Name() string {
	return "Orphan Images"
}

func (c *OrphanCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	orphans, err := jsonfile.FindOrphanImages(c.dataDir, c.minAge, c.now())
	if err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "Scan images",
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	}

	if len(orphans) == 0 {
		result.Items = append(result.Items, CheckItem{
			Label:  "No orphans",
			Status: StatusPass,
			Detail: "all images belong to retained messages",
		})
		return result
	}

	// Handle orphans - either report or fix
	for _, o := range orphans {
		if !c.fix {
			result.Items = append(result.Items, CheckItem{
				Label:   o.Name,
				Status:  StatusWarn,
				Detail:  fmt.Sprintf("orphaned image (%d bytes)", o.Size),
				Fixable: true,
			})
			continue
		}

		if _, err := jsonfile.RemoveOrphanImages([]jsonfile.OrphanImage{o}); err != nil {
			result.Items = append(result.Items, CheckItem{
				Label:  o.Name,
				Status: StatusFail,
				Detail: fmt.Sprintf("failed to delete: %v", err),
			})
			continue
		}

		result.Items = append(result.Items, CheckItem{
			Label:  o.Name,
			Status: StatusPass,
			Detail: "deleted orphaned image",
		})
	}

	return result
}
