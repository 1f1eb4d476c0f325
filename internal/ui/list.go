package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/wlx/internal/models"
)

var (
	_ list.Item = deletedItem{}
)

// deletedItem wraps [models.AuditRecord] to implement [list.Item].
type deletedItem struct {
	record models.AuditRecord
}

func (i deletedItem) FilterValue() string { return i.record.Title }

func (i deletedItem) Title() string {
	title := i.record.Title
	if title == "" {
		title = "(untitled)"
	}
	return fmt.Sprintf("%d. %s", i.record.SequenceNumber, title)
}

func (i deletedItem) Description() string {
	desc := i.record.ChannelName
	if i.record.LengthText != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.record.LengthText)
	}
	if i.record.VideoID != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.record.VideoID)
	}
	return desc
}

func deletedItems(records []models.AuditRecord) []list.Item {
	items := make([]list.Item, len(records))
	for i, rec := range records {
		items[i] = deletedItem{record: rec}
	}
	return items
}
