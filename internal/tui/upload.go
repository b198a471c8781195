package tui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/autodoc-cli/autodoc/internal/browser"
	"github.com/autodoc-cli/autodoc/internal/export"
	"github.com/autodoc-cli/autodoc/internal/logger"
	"github.com/autodoc-cli/autodoc/internal/render"
	"github.com/autodoc-cli/autodoc/internal/session"
	"github.com/autodoc-cli/autodoc/pkg/client"
	"github.com/autodoc-cli/autodoc/pkg/domain"
)

type uploadResultMsg struct {
	token string
	doc   *domain.Documentation
	err   error
}

type pdfResultMsg struct {
	token string
	data  []byte
	err   error
}

type pdfSavedMsg struct {
	path string
	err  error
}

type copyResultMsg struct {
	err error
}

type uploadModel struct {
	deps
	outputDir string

	path    string
	file    os.FileInfo
	fileErr string

	uploading  bool
	generating bool
	doc        domain.Documentation
	rendered   []string
	errText    string
	pdf        []byte
	savedPath  string

	scroll int
	width  int
	height int
}

func newUploadModel(d deps, outputDir string) uploadModel {
	if outputDir == "" {
		outputDir = "."
	}
	return uploadModel{deps: d, outputDir: outputDir}
}

// enter shows the screen fresh: no file chosen, no documentation.
func (m uploadModel) enter() uploadModel {
	n := newUploadModel(m.deps, m.outputDir)
	n.width = m.width
	n.height = m.height
	return n
}

func (m uploadModel) busy() bool {
	return m.uploading || m.generating
}

func (m uploadModel) canUpload() bool {
	return m.file != nil && !m.uploading
}

func (m uploadModel) canGenerate() bool {
	return !m.doc.Empty() && !m.generating
}

func (m uploadModel) canSave() bool {
	return len(m.pdf) > 0
}

// statUpload resolves p and checks it names a regular file.
func statUpload(p string) (string, os.FileInfo, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", nil, nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	info, err := os.Stat(p)
	if err != nil {
		return p, nil, err
	}
	if !info.Mode().IsRegular() {
		return p, nil, fmt.Errorf("%s is not a regular file", filepath.Base(p))
	}
	return p, info, nil
}

func (m uploadModel) setPath(p string) uploadModel {
	m.path = p
	m.file = nil
	m.fileErr = ""
	_, info, err := statUpload(p)
	switch {
	case err != nil && os.IsNotExist(err):
		m.fileErr = "no such file"
	case err != nil:
		m.fileErr = err.Error()
	default:
		m.file = info
	}
	return m
}

func (m uploadModel) Update(msg tea.Msg) (uploadModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.doc.Empty() {
			m.rendered = m.renderDoc()
		}
		return m, nil

	case uploadResultMsg:
		m.uploading = false
		if msg.err != nil {
			m.log.Warn("upload failed", logger.Err(msg.err))
			if client.IsAuthRejected(msg.err) {
				return m, m.rejectSession(session.RouteUpload, msg.token)
			}
			reason := client.Reason(msg.err)
			m.errText = reason
			return m, notify("File upload failed: "+reason, severityError, noticeTTL)
		}
		m.guard.OnProtectedSuccess(msg.token)
		if msg.doc != nil {
			m.doc = *msg.doc
		}
		m.errText = ""
		m.pdf = nil
		m.savedPath = ""
		m.scroll = 0
		m.rendered = m.renderDoc()
		m.log.Info("documentation generated", slog.Int("bytes", len(m.doc.Text)))
		return m, notify("File uploaded and documentation generated successfully!", severitySuccess, noticeTTL)

	case pdfResultMsg:
		m.generating = false
		if msg.err != nil {
			m.log.Warn("pdf generation failed", logger.Err(msg.err))
			if client.IsAuthRejected(msg.err) {
				return m, m.rejectSession(session.RouteUpload, msg.token)
			}
			return m, notify("PDF generation failed: "+client.Reason(msg.err), severityError, noticeTTL)
		}
		m.guard.OnProtectedSuccess(msg.token)
		m.pdf = msg.data
		m.savedPath = ""
		return m, notify("PDF generated successfully!", severitySuccess, noticeTTL)

	case pdfSavedMsg:
		if msg.err != nil {
			m.log.Error("save pdf", logger.Err(msg.err))
			return m, notify("Could not save PDF: "+msg.err.Error(), severityError, noticeTTL)
		}
		m.savedPath = msg.path
		return m, notify("Saved "+msg.path, severitySuccess, noticeTTL)

	case copyResultMsg:
		if msg.err != nil {
			return m, notify("Copy failed: "+msg.err.Error(), severityError, noticeTTL)
		}
		return m, notify("Documentation copied to clipboard", severityInfo, noticeTTL)

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			return m.startUpload()
		case tea.KeyCtrlP:
			return m.startPDF()
		case tea.KeyCtrlD:
			return m.savePDF()
		case tea.KeyCtrlO:
			if m.savedPath != "" {
				if err := browser.Open(m.savedPath); err != nil {
					return m, notify("Could not open PDF: "+err.Error(), severityError, noticeTTL)
				}
			}
			return m, nil
		case tea.KeyCtrlY:
			if m.doc.Empty() {
				return m, nil
			}
			text := m.doc.Text
			return m, func() tea.Msg {
				return copyResultMsg{err: clipboard.WriteAll(text)}
			}
		case tea.KeyUp:
			m.scroll = max(0, m.scroll-1)
		case tea.KeyDown:
			m.scroll = min(m.maxScroll(), m.scroll+1)
		case tea.KeyPgUp:
			m.scroll = max(0, m.scroll-m.docHeight())
		case tea.KeyPgDown:
			m.scroll = min(m.maxScroll(), m.scroll+m.docHeight())
		case tea.KeyBackspace:
			return m.setPath(dropLastRune(m.path)), nil
		case tea.KeyCtrlU:
			return m.setPath(""), nil
		case tea.KeyRunes, tea.KeySpace:
			runes := msg.Runes
			if msg.Type == tea.KeySpace {
				runes = []rune{' '}
			}
			return m.setPath(appendRunes(m.path, runes)), nil
		}
	}
	return m, nil
}

// startUpload sends the chosen file. It does nothing while no readable
// file is chosen or an upload is already running.
func (m uploadModel) startUpload() (uploadModel, tea.Cmd) {
	if !m.canUpload() {
		return m, nil
	}
	path, info, err := statUpload(m.path)
	if err != nil || info == nil {
		m = m.setPath(m.path)
		return m, nil
	}
	m.uploading = true
	m.errText = ""
	token := m.guard.Token()
	c := m.client
	m.log.Info("uploading file", slog.String("file", filepath.Base(path)), slog.Int64("size", info.Size()))
	return m, func() tea.Msg {
		doc, err := c.UploadFile(context.Background(), path)
		return uploadResultMsg{token: token, doc: doc, err: err}
	}
}

func (m uploadModel) startPDF() (uploadModel, tea.Cmd) {
	if !m.canGenerate() {
		return m, nil
	}
	m.generating = true
	token := m.guard.Token()
	c := m.client
	doc := m.doc
	return m, func() tea.Msg {
		data, err := c.GeneratePDF(context.Background(), doc)
		return pdfResultMsg{token: token, data: data, err: err}
	}
}

func (m uploadModel) savePDF() (uploadModel, tea.Cmd) {
	if !m.canSave() {
		return m, nil
	}
	data := m.pdf
	dir := m.outputDir
	return m, func() tea.Msg {
		path, err := export.SavePDF(dir, data)
		return pdfSavedMsg{path: path, err: err}
	}
}

func (m uploadModel) renderDoc() []string {
	w := m.width - 4
	if w < 20 {
		w = 0
	}
	out := render.Documentation(m.doc.Text, w)
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

// docHeight is the number of documentation lines visible at once.
func (m uploadModel) docHeight() int {
	return max(3, m.height-16)
}

func (m uploadModel) maxScroll() int {
	return max(0, len(m.rendered)-m.docHeight())
}

func (m uploadModel) View(width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Upload a File") + "\n\n")

	path := m.path
	if path == "" {
		path = inputPlaceholderStyle.Render("path/to/source.py")
	} else {
		path = normalStyle.Render(path)
	}
	b.WriteString(inputPromptStyle.Render("> ") + path + accentStyle.Render("█") + "\n")
	switch {
	case m.file != nil:
		b.WriteString(metaStyle.Render(m.file.Name()+" . "+formatBytes(m.file.Size())) + "\n")
	case m.fileErr != "":
		b.WriteString(errorStyle.Render(m.fileErr) + "\n")
	default:
		b.WriteString(dimStyle.Render("Type the path of a file to document.") + "\n")
	}
	b.WriteString("\n")

	if m.uploading {
		b.WriteString(button("Uploading…", false))
	} else {
		b.WriteString(button("Upload", m.canUpload()))
	}
	b.WriteString("  ")
	if m.generating {
		b.WriteString(button("Generating…", false))
	} else {
		b.WriteString(button("Generate PDF", m.canGenerate()))
	}
	if m.canSave() {
		b.WriteString("  " + button("Save PDF", true))
	}
	if m.savedPath != "" {
		b.WriteString("\n\n" + successStyle.Render("saved to "+truncStr(m.savedPath, 48)))
	}
	if m.errText != "" {
		b.WriteString("\n\n" + errorStyle.Render("Error: "+m.errText))
	}

	out := "\n" + card(b.String(), width)
	if len(m.rendered) > 0 {
		end := min(len(m.rendered), m.scroll+m.docHeight())
		out += "\n\n" + titleStyle.Render(" Generated Documentation") + "\n\n"
		for _, line := range m.rendered[m.scroll:end] {
			out += "  " + line + "\n"
		}
		if m.maxScroll() > 0 {
			out += dimStyle.Render(fmt.Sprintf("  %d-%d of %d lines", m.scroll+1, end, len(m.rendered)))
		}
	}
	return out
}

func (m uploadModel) help() string {
	pairs := []string{"enter", "upload"}
	if !m.doc.Empty() {
		pairs = append(pairs, "ctrl+p", "pdf", "ctrl+y", "copy", "↑/↓", "scroll")
	}
	if m.canSave() {
		pairs = append(pairs, "ctrl+d", "save")
	}
	if m.savedPath != "" {
		pairs = append(pairs, "ctrl+o", "open")
	}
	pairs = append(pairs, "esc", "back", "ctrl+c", "quit")
	return helpBar(pairs...)
}
