package client

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/MatthewTully/keyforge/internal/encoding"
)

func StartTUI(c *Client) error {
	app := initView(c)
	c.TUI = app
	return c.TUI.Run()
}

func initView(c *Client) *tview.Application {
	app := tview.NewApplication()

	pages := tview.NewPages()

	outputLog := createOutputView().SetChangedFunc(c.textViewChangeHandler)
	textBox := createInputBoxView()

	textBox.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			input := textBox.GetText()
			c.LastCommand = input
			actionInput(c, input)
			textBox.SetText("")
		}
	})

	textBox.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyUp {
			if c.LastCommand != textBox.GetText() {
				textBox.SetText(c.LastCommand)
			}
			return nil
		}
		return event
	})

	textBox.SetAutocompleteFunc(func(currentText string) (entries []string) {
		if !strings.HasPrefix(currentText, "\\") {
			return
		}
		for key := range getUserCommands() {
			if strings.HasPrefix(strings.ToLower(key), strings.ToLower(currentText)) {
				entries = append(entries, key)
			}
		}
		slices.Sort(entries)
		return
	})

	textBox.SetAutocompletedFunc(func(text string, index, source int) bool {
		if source != tview.AutocompletedNavigate {
			textBox.SetText(text + " ")
		}
		return source == tview.AutocompletedEnter || source == tview.AutocompletedClick
	})

	outputFlex := tview.NewFlex().SetDirection(tview.FlexRow).AddItem(outputLog, 0, 1, false).AddItem(textBox, 3, 1, true)
	keyPanel := createKeyView().SetChangedFunc(c.textViewChangeHandler)
	mainView := tview.NewFlex().AddItem(outputFlex, 0, 3, true).AddItem(keyPanel, 0, 2, false)

	userCmdModal := userCommandModal()
	userCmdModal.SetDoneFunc(func(buttonIndex int, buttonLabel string) {
		if buttonLabel == "OK" {
			pages.HidePage("user-commands")
		}
	})

	pages.AddPage("main-view", mainView, true, true)
	pages.AddPage("home-page", homeScreenModal(c.cfg), false, !c.Connected())
	pages.AddPage("user-commands", userCmdModal, false, false)

	app.SetRoot(pages, true).EnableMouse(true).EnablePaste(true)
	app.SetFocus(textBox)

	c.outputView = outputLog
	c.keyView = keyPanel
	c.userInputBox = textBox
	c.tuiPages = pages
	c.SetOutput(outputLog)
	return app
}

func (c *Client) textViewChangeHandler() {
	c.TUI.Draw()
}

func (c *Client) showHomePage() {
	if c.tuiPages == nil {
		return
	}
	c.tuiPages.ShowPage("home-page")
	c.TUI.SetFocus(c.userInputBox)
}

func (c *Client) hideHomePage() {
	if c.tuiPages == nil {
		return
	}
	c.tuiPages.HidePage("home-page")
	c.TUI.SetFocus(c.userInputBox)
}

func (c *Client) showKey(km encoding.KeyMaterial) {
	if c.keyView == nil {
		return
	}
	c.keyView.Clear()
	fmt.Fprint(c.keyView, formatKey(km))
}

func createTextView() *tview.TextView {
	return tview.NewTextView().SetDynamicColors(true).SetRegions(true).SetWordWrap(true)
}

func createOutputView() *tview.TextView {
	output := createTextView()
	output.SetTitle("  Output  ")
	output.SetMaxLines(250)
	output.SetBorder(true)
	output.ScrollToEnd()
	return output
}

func createKeyView() *tview.TextView {
	keyView := createTextView()
	keyView.SetTitle("  Last Keypair  ")
	keyView.SetBorder(true)
	return keyView
}

func createInputBoxView() *tview.InputField {
	txtBox := tview.NewInputField()
	txtBox.SetPlaceholder("Enter a command, e.g. \\connect localhost:49152")
	txtBox.SetBorder(true)
	txtBox.SetFieldBackgroundColor(tcell.ColorDefault)
	txtBox.SetFieldTextColor(tcell.ColorDefault)
	txtBox.SetPlaceholderTextColor(tcell.ColorDefault)

	txtBox.SetBorderPadding(0, 0, 1, 1)

	return txtBox
}

func commandHelp() string {
	commands := getUserCommands()
	names := slices.Sorted(maps.Keys(commands))

	var sb strings.Builder
	sb.WriteString("Available User commands:\n\n")
	for _, name := range names {
		fmt.Fprintf(&sb, "  %s - %s\n", name, commands[name].description)
	}
	return sb.String()
}

func userCommandModal() *tview.Modal {
	modal := tview.NewModal()
	modal.AddButtons([]string{"OK"})
	modal.SetText(commandHelp())
	return modal
}

func homeScreenModal(cfg *ClientConfig) *tview.Modal {
	modal := tview.NewModal()
	modal.SetTitle(fmt.Sprintf(" Welcome %v! ", cfg.Name))
	var sb strings.Builder
	sb.WriteString("No active Connections\n\n")
	sb.WriteString("Use \\connect to connect to a key server!")
	modal.SetText(sb.String())
	return modal
}
