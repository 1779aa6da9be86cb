package results

import (
	"github.com/joacominatel/dbdeck/internal/app"
	"github.com/joacominatel/dbdeck/internal/database"
)

// SetEditorQueryMsg tells the app to put a query in the editor pane.
type SetEditorQueryMsg struct {
	Query string
}

// StatusNotifyMsg tells the app to show a message in the status bar.
type StatusNotifyMsg struct {
	Message string
}

// PageRequestMsg asks the app to load another page, sort or filter of the
// table being browsed.
type PageRequestMsg struct {
	Request app.TableRequest
}

// DeleteRowMsg asks the app to delete a row of the table being browsed.
type DeleteRowMsg struct {
	Table string
	Row   database.Row
}
