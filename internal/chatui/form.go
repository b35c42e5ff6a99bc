package chatui

import (
	"fmt"

	"github.com/rvald/chatgui/internal/chat"
	"github.com/rvald/chatgui/internal/intercept"
)

// Form renders a labelled field with its current value and an edit button.
// Clicking edit prompts the player for a new value in chat; accept receives
// the first line that passes validate.
func (ui *Interface) Form(label, value string, validate func(string) bool, accept func(string)) chat.Message {
	shown := ui.theme.NotSet
	if value != "" {
		shown = fmt.Sprintf(ui.theme.Value, value)
	}

	edit := ui.IssueButton(func() {
		ui.RevokeAllButtons()
		ui.PromptInput(label, validate, accept)
	}, ui.theme.EditButton, "")

	var m chat.Message
	m.AddText(fmt.Sprintf(ui.theme.Label, label))
	m.AddText(shown)
	m.AddLine(edit.Segment())
	return m
}

// PromptInput asks the player for field in chat and waits for the answer.
// Invalid answers are reported and the prompt stays open. A valid answer
// revokes the cancel button, is passed to accept and the interface is sent
// again.
func (ui *Interface) PromptInput(field string, validate func(string) bool, accept func(string)) {
	cancel := ui.issueCancelInput()

	var m chat.Message
	m.AddText(fmt.Sprintf(ui.theme.InputPrompt, field))
	m.AddText(" ")
	m.Add(cancel.Segment())
	ui.tk.Transport.Send(ui.player, m)

	ui.awaitInput(validate, accept)
}

// awaitInput requests one chat line. Each invalid line requests the next
// one from the completion callback, so a player retrying forever never
// deepens the stack.
func (ui *Interface) awaitInput(validate func(string) bool, accept func(string)) {
	ui.tk.Interceptor.Request(ui.player).OnComplete(func(text string, err error) {
		if err != nil {
			// TODO: decide whether a superseded prompt should tell the player.
			ui.logger.Debug("input prompt ended without input", "error", err)
			return
		}
		if validate != nil && !validate(text) {
			ui.tk.Transport.Send(ui.player, chat.Text(ui.theme.InvalidInput))
			ui.awaitInput(validate, accept)
			return
		}

		ui.mu.Lock()
		cancel := ui.cancelInput
		ui.cancelInput = nil
		ui.mu.Unlock()
		ui.RevokeButton(cancel)

		accept(text)
		ui.Send()
	})
}

func (ui *Interface) issueCancelInput() *Button {
	var b *Button
	b = ui.IssueButton(func() {
		ui.tk.Interceptor.Cancel(ui.player, intercept.ReasonInputCancelled)
		ui.RevokeButton(b)
		ui.mu.Lock()
		if ui.cancelInput == b {
			ui.cancelInput = nil
		}
		ui.mu.Unlock()

		if ui.theme.Footer != "" {
			ui.tk.Transport.Send(ui.player, chat.Text(ui.theme.Footer))
		}
		ui.tk.Transport.Send(ui.player, chat.Text(ui.theme.InputCancelled))
		ui.Send()
	}, ui.theme.CancelInputButton, "")

	ui.mu.Lock()
	ui.cancelInput = b
	ui.mu.Unlock()
	return b
}
