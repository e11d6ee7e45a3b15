package format

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sshdeck/sshdeck/internal/model"
)

// Size renders a byte count, or a dash when unknown.
func Size(bytes int64) string {
	if bytes <= 0 {
		return "-"
	}
	return humanize.IBytes(uint64(bytes))
}

// Rate renders a transfer speed, or a dash when unknown.
func Rate(bytesPerSecond int64) string {
	if bytesPerSecond <= 0 {
		return "-"
	}
	return humanize.IBytes(uint64(bytesPerSecond)) + "/s"
}

// ETA renders a remaining-time estimate, or a dash when unknown.
func ETA(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	d = d.Round(time.Second)
	if d >= time.Hour {
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
	if d >= time.Minute {
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}

// Progress renders the percentage for non-terminal items and the status
// word otherwise.
func Progress(item model.TransferItem) string {
	switch item.Status {
	case model.TransferPending:
		return "queued"
	case model.TransferActive:
		return fmt.Sprintf("%3.0f%%", item.Progress)
	case model.TransferPaused:
		return fmt.Sprintf("paused %3.0f%%", item.Progress)
	default:
		return string(item.Status)
	}
}

// Direction renders the arrow glyph for a transfer direction.
func Direction(d model.Direction) string {
	if d == model.DirectionUpload {
		return "↑"
	}
	return "↓"
}
