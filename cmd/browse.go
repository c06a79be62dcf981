package cmd

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mabhi256/hprofdump/hprof"
	"github.com/mabhi256/hprofdump/utils"
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse <dump.hprof>",
	Short: "Interactively page through a dump's records",
	Args:  cobra.ExactArgs(1),
	ValidArgsFunction: utils.CompleteFilesByExtension(
		[]string{".hprof", ".bin"}, false),
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

// browsePageSize is how many facades a pager fetches per call.
// browsePrefetchMargin is how close to the loaded boundary the cursor
// must get before the model asks the pager for another page.
const (
	browsePageSize       = 200
	browsePrefetchMargin = 20
)

// recordItem adapts a hprof.Record to bubbles/list's list.Item contract.
type recordItem struct {
	addr    int
	tag     string
	length  int
	preview string
}

func (i recordItem) Title() string { return fmt.Sprintf("0x%08x  %s", i.addr, i.tag) }
func (i recordItem) Description() string {
	return utils.TruncateString(fmt.Sprintf("length=%d  %s", i.length, i.preview), 96)
}
func (i recordItem) FilterValue() string { return i.tag }

// subrecordItem adapts a hprof.HeapRecord to bubbles/list's list.Item contract.
type subrecordItem struct {
	addr    int
	tag     string
	preview string
}

func (i subrecordItem) Title() string { return fmt.Sprintf("0x%08x  %s", i.addr, i.tag) }
func (i subrecordItem) Description() string {
	return utils.TruncateString(i.preview, 96)
}
func (i subrecordItem) FilterValue() string { return i.tag }

// topPager lazily grows the set of known top-level records by pulling
// from a hprof.RecordIter on demand. It never holds more than the
// records it has been asked for, so a multi-gigabyte dump costs no
// more memory here than however many pages the user has scrolled
// through.
type topPager struct {
	iter     *hprof.RecordIter
	frontier int
	done     bool
	err      error
}

func newTopPager(src *hprof.Source) *topPager {
	return &topPager{iter: src.Records()}
}

// fetch pulls up to n more records and returns them as list items. A
// short read (fewer than n items, nil error) means end of stream.
func (p *topPager) fetch(n int) ([]list.Item, error) {
	if p.done || p.err != nil {
		return nil, p.err
	}
	items := make([]list.Item, 0, n)
	for i := 0; i < n && p.iter.Next(); i++ {
		rec := p.iter.Record()
		length, _ := rec.Length()
		p.frontier = rec.Address() + length
		items = append(items, recordItem{
			addr:    rec.Address(),
			tag:     rec.Tag().String(),
			length:  length,
			preview: rec.String(),
		})
	}
	if err := p.iter.Err(); err != nil {
		p.err = err
		return items, err
	}
	if len(items) < n {
		p.done = true
	}
	return items, nil
}

// subPager is a topPager's counterpart one level down: it lazily pages
// through a single HeapDumpSegment's subrecords.
type subPager struct {
	iter *hprof.SubrecordIter
	done bool
	err  error
}

func newSubPager(seg hprof.HeapDumpSegment) *subPager {
	return &subPager{iter: seg.Subrecords()}
}

func (p *subPager) fetch(n int) ([]list.Item, error) {
	if p.done || p.err != nil {
		return nil, p.err
	}
	items := make([]list.Item, 0, n)
	for i := 0; i < n && p.iter.Next(); i++ {
		rec := p.iter.Record()
		items = append(items, subrecordItem{
			addr:    rec.Address(),
			tag:     rec.Tag().String(),
			preview: rec.String(),
		})
	}
	if err := p.iter.Err(); err != nil {
		p.err = err
		return items, err
	}
	if len(items) < n {
		p.done = true
	}
	return items, nil
}

type browseMode int

const (
	modeTop browseMode = iota
	modeSub
)

// browseModel pages over a Source's top-level records, and can drill
// down into a selected HeapDumpSegment's subrecords. Neither list is
// ever populated in full: both grow one page at a time as the cursor
// nears the loaded boundary.
type browseModel struct {
	src *hprof.Source
	len int

	mode browseMode

	top      list.Model
	topPager *topPager

	sub      list.Model
	subPager *subPager

	status string
	errMsg string
}

func newBrowseModel(src *hprof.Source) (*browseModel, error) {
	pager := newTopPager(src)
	first, err := pager.fetch(browsePageSize)
	if err != nil {
		return nil, err
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(utils.InfoColor)

	top := list.New(first, delegate, 0, 0)
	top.Title = "Records"
	top.Styles.Title = utils.TitleStyle

	sub := list.New(nil, delegate, 0, 0)
	sub.Styles.Title = utils.TitleStyle

	return &browseModel{
		src:      src,
		len:      src.Len(),
		top:      top,
		topPager: pager,
		sub:      sub,
	}, nil
}

func (m *browseModel) Init() tea.Cmd {
	return nil
}

// maybeFetchMore asks l's pager for another page once the cursor gets
// within browsePrefetchMargin of the last loaded item.
func maybeFetchMore(l *list.Model, fetch func(int) ([]list.Item, error)) error {
	items := l.Items()
	if l.Index() < len(items)-browsePrefetchMargin {
		return nil
	}
	more, err := fetch(browsePageSize)
	if len(more) > 0 {
		l.SetItems(append(items, more...))
	}
	return err
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.top.SetSize(msg.Width, msg.Height-3)
		m.sub.SetSize(msg.Width, msg.Height-3)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "y":
			m.copySelected()
			return m, nil
		case "enter":
			if m.mode == modeTop {
				m.drillDown()
			}
			return m, nil
		case "esc", "backspace":
			if m.mode == modeSub {
				m.mode = modeTop
				m.status = ""
				m.errMsg = ""
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.mode {
	case modeTop:
		m.top, cmd = m.top.Update(msg)
		if err := maybeFetchMore(&m.top, m.topPager.fetch); err != nil {
			m.errMsg = fmt.Sprintf("error reading records: %v", err)
		}
	case modeSub:
		m.sub, cmd = m.sub.Update(msg)
		if m.subPager != nil {
			if err := maybeFetchMore(&m.sub, m.subPager.fetch); err != nil {
				m.errMsg = fmt.Sprintf("error reading subrecords: %v", err)
			}
		}
	}
	return m, cmd
}

// drillDown re-dispatches the selected top-level record at its known
// address; if it's a heap-dump segment, it switches into a lazily
// paged view over that segment's subrecords.
func (m *browseModel) drillDown() {
	item, ok := m.top.SelectedItem().(recordItem)
	if !ok {
		return
	}
	rec, err := hprof.RecordAt(m.src, item.addr)
	if err != nil {
		m.errMsg = fmt.Sprintf("error reloading record: %v", err)
		return
	}
	seg, ok := rec.(hprof.HeapDumpSegment)
	if !ok {
		m.status = "not a heap dump segment"
		return
	}

	pager := newSubPager(seg)
	first, err := pager.fetch(browsePageSize)
	if err != nil {
		m.errMsg = fmt.Sprintf("error reading subrecords: %v", err)
		return
	}

	m.subPager = pager
	m.sub.Title = fmt.Sprintf("Subrecords of 0x%08x", item.addr)
	m.sub.SetItems(first)
	m.sub.Select(0)
	m.mode = modeSub
	m.status = ""
	m.errMsg = ""
}

func (m *browseModel) copySelected() {
	var preview string
	switch m.mode {
	case modeTop:
		item, ok := m.top.SelectedItem().(recordItem)
		if !ok {
			return
		}
		preview = item.preview
	case modeSub:
		item, ok := m.sub.SelectedItem().(subrecordItem)
		if !ok {
			return
		}
		preview = item.preview
	}
	if err := clipboard.WriteAll(preview); err != nil {
		m.status = "copy failed"
		return
	}
	m.status = "copied to clipboard"
}

func (m *browseModel) View() string {
	var body, help string
	switch m.mode {
	case modeTop:
		body = m.top.View()
		help = "↑/↓ move · enter drill into heap dump · y copy · q quit"
	case modeSub:
		body = m.sub.View()
		help = "↑/↓ move · esc back · y copy · q quit"
	}

	frontier := m.topPager.frontier
	var pct float64
	if m.len > 0 {
		pct = float64(frontier) / float64(m.len)
	}
	progress := utils.CreateProgressBar(pct, 30, utils.InfoColor)
	status := fmt.Sprintf("%s %d/%d bytes scanned", progress, frontier, m.len)

	bar := utils.HelpBarStyle.Render(help)
	footer := lipgloss.JoinHorizontal(lipgloss.Left, bar, "  ", utils.MutedStyle.Render(status))
	switch {
	case m.errMsg != "":
		footer = lipgloss.JoinVertical(lipgloss.Left, footer, utils.ErrorStyle.Render(m.errMsg))
	case m.status != "":
		footer = lipgloss.JoinVertical(lipgloss.Left, footer, utils.InfoStyle.Render(m.status))
	}
	return body + "\n" + footer
}

func runBrowse(cmd *cobra.Command, args []string) error {
	src, err := hprof.OpenFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer src.Close()

	model, err := newBrowseModel(src)
	if err != nil {
		return fmt.Errorf("failed to read records: %w", err)
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
