package tui

import (
	"strings"
	"unicode"

	"charm.land/bubbles/v2/key"
)

// keyMap represents key map data used by this package.
type keyMap struct {
	quit          key.Binding
	reload        key.Binding
	save          key.Binding
	toggleHelp    key.Binding
	selectUp      key.Binding
	selectDown    key.Binding
	moveLeft      key.Binding
	moveRight     key.Binding
	nudgeLeft     key.Binding
	nudgeRight    key.Binding
	fromLeft      key.Binding
	fromRight     key.Binding
	toLeft        key.Binding
	toRight       key.Binding
	scrollLeft    key.Binding
	scrollRight   key.Binding
	zoomIn        key.Binding
	zoomOut       key.Binding
	taskInfo      key.Binding
	copyTaskRange key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload data")),
		save:          key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "write data file")),
		toggleHelp:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		selectUp:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "previous task")),
		selectDown:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "next task")),
		moveLeft:      key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "move one column earlier")),
		moveRight:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "move one column later")),
		nudgeLeft:     key.NewBinding(key.WithKeys("H", "shift+h"), key.WithHelp("H", "precise move earlier")),
		nudgeRight:    key.NewBinding(key.WithKeys("L", "shift+l"), key.WithHelp("L", "precise move later")),
		fromLeft:      key.NewBinding(key.WithKeys("["), key.WithHelp("[", "start earlier")),
		fromRight:     key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "start later")),
		toLeft:        key.NewBinding(key.WithKeys("{"), key.WithHelp("{", "end earlier")),
		toRight:       key.NewBinding(key.WithKeys("}"), key.WithHelp("}", "end later")),
		scrollLeft:    key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "scroll left")),
		scrollRight:   key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "scroll right")),
		zoomIn:        key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "finer scale")),
		zoomOut:       key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "coarser scale")),
		taskInfo:      key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i/enter", "task info")),
		copyTaskRange: key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy task range")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.selectDown, k.moveRight, k.fromRight, k.toRight, k.zoomIn, k.taskInfo, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.selectUp, k.selectDown, k.scrollLeft, k.scrollRight, k.zoomIn, k.zoomOut},
		{k.moveLeft, k.moveRight, k.nudgeLeft, k.nudgeRight, k.fromLeft, k.fromRight, k.toLeft, k.toRight},
		{k.taskInfo, k.copyTaskRange, k.reload, k.save, k.toggleHelp, k.quit},
	}
}

// KeyConfig holds user overrides for the rebindable actions. Blank fields keep the defaults.
type KeyConfig struct {
	Reload        string
	Save          string
	TaskInfo      string
	CopyTaskRange string
	ZoomIn        string
	ZoomOut       string
}

// applyConfig rebinds actions named in cfg.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.reload, cfg.Reload, "r", "reload data")
	configureBinding(&k.save, cfg.Save, "w", "write data file")
	configureBinding(&k.taskInfo, cfg.TaskInfo, "i", "task info")
	configureBinding(&k.copyTaskRange, cfg.CopyTaskRange, "y", "copy task range")
	configureBinding(&k.zoomIn, cfg.ZoomIn, "+", "finer scale")
	configureBinding(&k.zoomOut, cfg.ZoomOut, "-", "coarser scale")
}

// configureBinding replaces b with the parsed override, or leaves it untouched when raw is blank.
func configureBinding(b *key.Binding, raw, fallback, desc string) {
	if strings.TrimSpace(raw) == "" {
		return
	}
	keys, help := parseBindingKeys(raw, fallback)
	*b = key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// parseBindingKeys turns a configured key into matcher keys and the help label.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = fallback
	}
	if strings.EqualFold(raw, "space") || raw == " " {
		return []string{" ", "space"}, "space"
	}
	runes := []rune(raw)
	if len(runes) == 1 {
		r := runes[0]
		if unicode.IsUpper(r) {
			return []string{raw, "shift+" + string(unicode.ToLower(r))}, raw
		}
		return []string{raw}, raw
	}
	return []string{strings.ToLower(raw)}, raw
}
