// Copyright (C) 2025 Octank Labs (oss@octanklabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/octanklabs/glassbox/pkg/backend"
	"github.com/octanklabs/glassbox/pkg/channel"
	"github.com/octanklabs/glassbox/pkg/docview"
	"github.com/octanklabs/glassbox/pkg/logging"
	"github.com/octanklabs/glassbox/pkg/session"
)

const requestTimeout = 30 * time.Second

// hoodTab indexes the under-the-hood panel tabs.
type hoodTab int

const (
	tabTrace hoodTab = iota
	tabTools
	tabKnowledge
	tabReview
	tabAudit
	tabCompliance
	tabCount
)

func (t hoodTab) title() string {
	switch t {
	case tabTrace:
		return "Trace"
	case tabTools:
		return "Tools"
	case tabKnowledge:
		return "Knowledge"
	case tabReview:
		return "Review"
	case tabAudit:
		return "Audit"
	case tabCompliance:
		return "Compliance"
	default:
		return "?"
	}
}

// Messages posted back into the event loop. Every piece of I/O and every
// timer lands here; Update is the only place state changes.
type (
	membersMsg        struct{ members []backend.Member }
	membersErrMsg     struct{ err error }
	sessionStartedMsg struct{ resp *backend.StartSessionResponse }
	sessionErrMsg     struct{ err error }
	channelReadyMsg   struct {
		sessionID string
		adapter   *channel.Adapter
	}
	channelErrMsg   struct{ err error }
	channelEventMsg struct {
		from *channel.Adapter
		ev   channel.Event
	}
	channelClosedMsg struct{ from *channel.Adapter }
	turnDoneMsg      struct{ resp *backend.TurnResponse }
	turnErrMsg       struct{ err error }
	timerMsg         struct{ ev session.TimerEvent }
	desktopMsg       struct{ data *backend.AgentDesktop }
	desktopErrMsg    struct{ err error }
	analyticsMsg     struct{ data *backend.Analytics }
	analyticsErrMsg  struct{ err error }
	docMsg           struct {
		name  string
		body  string
		chunk string
	}
	docErrMsg struct {
		name string
		err  error
	}
)

type modelConfig struct {
	client     backend.Client
	backendURL string
	log        *logging.Logger
	session    session.Config
}

// docState is the document viewer modal.
type docState struct {
	open    bool
	loading bool
	name    string
	chunk   string
	vp      viewport.Model
}

type model struct {
	cfg  modelConfig
	log  *slog.Logger
	ctrl *session.Controller

	cache   *docview.Cache
	timerCh chan session.TimerEvent
	adapter *channel.Adapter

	width  int
	height int

	// Auth screen.
	members  []backend.Member
	memberID string
	form     *huh.Form
	authErr  string

	// Chat screen.
	input        textinput.Model
	spin         spinner.Model
	hoodOpen     bool
	tab          hoodTab
	hoodFocus    bool
	knowledgeSel int

	// Agent desktop.
	agentInput textinput.Model

	// Analytics screen.
	analytics        *backend.Analytics
	analyticsErr     string
	analyticsLoading bool

	doc    docState
	status string
}

func newModel(cfg modelConfig) model {
	timerCh := make(chan session.TimerEvent, 16)
	notify := func(ev session.TimerEvent) { timerCh <- ev }

	slogger := cfg.log.Slog()
	ctrl := session.NewController(cfg.session, slogger, notify)

	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.CharLimit = 500

	agentInput := textinput.New()
	agentInput.Placeholder = "Reply as agent..."
	agentInput.CharLimit = 500

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return model{
		cfg:        cfg,
		log:        slogger,
		ctrl:       ctrl,
		cache:      docview.NewCache(),
		timerCh:    timerCh,
		input:      input,
		agentInput: agentInput,
		spin:       sp,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetchMembers(), m.waitForTimer(), m.spin.Tick)
}

// =============================================================================
// Commands
// =============================================================================

func (m model) fetchMembers() tea.Cmd {
	client := m.cfg.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		members, err := client.Members(ctx)
		if err != nil {
			return membersErrMsg{err}
		}
		return membersMsg{members}
	}
}

func (m model) startSession(memberID string) tea.Cmd {
	client := m.cfg.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		resp, err := client.StartSession(ctx, memberID)
		if err != nil {
			return sessionErrMsg{err}
		}
		return sessionStartedMsg{resp}
	}
}

func (m model) dialChannel(sessionID string) tea.Cmd {
	baseURL := m.cfg.backendURL
	log := m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		adapter, err := channel.Dial(ctx, channel.Config{
			BaseURL:   baseURL,
			SessionID: sessionID,
		}, log)
		if err != nil {
			return channelErrMsg{err}
		}
		return channelReadyMsg{sessionID: sessionID, adapter: adapter}
	}
}

// waitForEvent blocks on the push channel. A closed channel ends the live
// trace for the session; the authoritative response path keeps working.
// Messages carry the adapter that produced them so the update loop can drop
// anything queued by a superseded session's channel.
func waitForEvent(adapter *channel.Adapter) tea.Cmd {
	if adapter == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-adapter.Events()
		if !ok {
			return channelClosedMsg{from: adapter}
		}
		return channelEventMsg{from: adapter, ev: ev}
	}
}

func (m model) waitForTimer() tea.Cmd {
	ch := m.timerCh
	return func() tea.Msg {
		return timerMsg{<-ch}
	}
}

func (m model) submitTurn(sessionID, text string) tea.Cmd {
	client := m.cfg.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		resp, err := client.SubmitTurn(ctx, sessionID, text)
		if err != nil {
			return turnErrMsg{err}
		}
		return turnDoneMsg{resp}
	}
}

func (m model) fetchDesktop(sessionID string) tea.Cmd {
	client := m.cfg.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		data, err := client.AgentDesktop(ctx, sessionID)
		if err != nil {
			return desktopErrMsg{err}
		}
		return desktopMsg{data}
	}
}

func (m model) fetchAnalytics() tea.Cmd {
	client := m.cfg.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		data, err := client.Analytics(ctx)
		if err != nil {
			return analyticsErrMsg{err}
		}
		return analyticsMsg{data}
	}
}

func (m model) fetchDoc(name, chunk string) tea.Cmd {
	client := m.cfg.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		body, err := client.Document(ctx, name)
		if err != nil {
			return docErrMsg{name: name, err: err}
		}
		return docMsg{name: name, body: body, chunk: chunk}
	}
}

// =============================================================================
// Update
// =============================================================================

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.doc.open {
			m.doc.vp.Width = m.docViewerWidth()
			m.doc.vp.Height = m.docViewerHeight()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case membersMsg:
		m.members = msg.members
		m.form = m.buildAuthForm()
		return m, m.form.Init()

	case membersErrMsg:
		m.authErr = "Could not load member directory: " + msg.err.Error()
		return m, nil

	case sessionStartedMsg:
		m.ctrl.BeginSession(msg.resp)
		m.cache.Clear()
		m.status = ""
		m.hoodOpen = true
		m.tab = tabTrace
		m.input.Focus()
		return m, m.dialChannel(msg.resp.SessionID)

	case sessionErrMsg:
		m.authErr = "Could not start session: " + msg.err.Error()
		m.form = m.buildAuthForm()
		return m, m.form.Init()

	case channelReadyMsg:
		// The session may have ended while the dial was in flight.
		if sess := m.ctrl.Session(); sess == nil || sess.ID != msg.sessionID {
			_ = msg.adapter.Close()
			return m, nil
		}
		m.adapter = msg.adapter
		return m, waitForEvent(msg.adapter)

	case channelErrMsg:
		// Live trace degrades; turns still work over the request path.
		m.log.Warn("trace channel unavailable", slog.String("error", msg.err.Error()))
		m.status = "Live trace unavailable"
		return m, nil

	case channelEventMsg:
		if msg.from != m.adapter {
			return m, nil
		}
		m.ctrl.ApplyChannelEvent(msg.ev)
		return m, waitForEvent(msg.from)

	case channelClosedMsg:
		if msg.from != m.adapter {
			return m, nil
		}
		m.adapter = nil
		m.status = "Live trace disconnected"
		return m, nil

	case timerMsg:
		var cmd tea.Cmd
		if m.ctrl.OnTimer(msg.ev) == session.ActionFetchDesktop {
			cmd = m.fetchDesktop(m.ctrl.Session().ID)
		}
		return m, tea.Batch(m.waitForTimer(), cmd)

	case turnDoneMsg:
		outcome := m.ctrl.CompleteTurn(msg.resp)
		if outcome.Blocked {
			m.hoodOpen = true
			m.tab = tabTrace
		}
		return m, nil

	case turnErrMsg:
		if errors.Is(msg.err, backend.ErrSessionNotFound) {
			return m.signOut("Session expired. Please start a new session.")
		}
		m.ctrl.FailTurn(msg.err)
		return m, nil

	case desktopMsg:
		m.ctrl.EnterDesktop(msg.data)
		m.agentInput.Focus()
		m.input.Blur()
		return m, nil

	case desktopErrMsg:
		m.ctrl.DesktopLoadFailed(msg.err)
		return m, nil

	case analyticsMsg:
		m.analytics = msg.data
		m.analyticsLoading = false
		m.analyticsErr = ""
		return m, nil

	case analyticsErrMsg:
		m.analyticsLoading = false
		m.analyticsErr = "Could not load analytics: " + msg.err.Error()
		return m, nil

	case docMsg:
		m.cache.Put(msg.name, msg.body)
		m.openDoc(msg.name, msg.body, msg.chunk)
		return m, nil

	case docErrMsg:
		m.doc = docState{}
		m.status = "Could not open " + msg.name
		return m, nil
	}

	return m.updateFocused(msg)
}

// updateFocused forwards unhandled messages to whichever embedded
// component currently has focus.
func (m model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.ctrl.Screen() {
	case session.ScreenAuth:
		if m.form != nil {
			return m.updateAuthForm(msg)
		}
	case session.ScreenChat:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	case session.ScreenAgentDesktop:
		var cmd tea.Cmd
		m.agentInput, cmd = m.agentInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.closeChannel()
		return m, tea.Quit
	}

	if m.doc.open {
		return m.handleDocKey(msg)
	}

	switch m.ctrl.Screen() {
	case session.ScreenAuth:
		return m.handleAuthKey(msg)
	case session.ScreenChat:
		return m.handleChatKey(msg)
	case session.ScreenAgentDesktop:
		return m.handleDesktopKey(msg)
	case session.ScreenAnalytics:
		return m.handleAnalyticsKey(msg)
	}
	return m, nil
}

func (m model) handleAuthKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	return m.updateAuthForm(msg)
}

func (m *model) updateAuthFormIn(msg tea.Msg) tea.Cmd {
	f, cmd := m.form.Update(msg)
	if form, ok := f.(*huh.Form); ok {
		m.form = form
	}
	return cmd
}

func (m model) updateAuthForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.updateAuthFormIn(msg)
	if m.form.State == huh.StateCompleted {
		if !m.ctrl.StartSessionAllowed(m.memberID) {
			// Blank selection: stay put, rebuild the form.
			m.form = m.buildAuthForm()
			return m, m.form.Init()
		}
		m.authErr = ""
		m.form = nil
		return m, m.startSession(m.memberID)
	}
	return m, cmd
}

func (m model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if m.hoodFocus {
			return m.hoodEnter()
		}
		text := m.input.Value()
		if m.ctrl.SubmitTurn(text) {
			m.input.Reset()
			return m, m.submitTurn(m.ctrl.Session().ID, text)
		}
		return m, nil

	case "ctrl+u":
		m.hoodOpen = !m.hoodOpen
		if !m.hoodOpen {
			m.hoodFocus = false
			m.input.Focus()
		}
		return m, nil

	case "tab":
		if m.hoodOpen {
			m.hoodFocus = !m.hoodFocus
			if m.hoodFocus {
				m.input.Blur()
			} else {
				m.input.Focus()
			}
		}
		return m, nil

	case "left", "right":
		if m.hoodFocus {
			if msg.String() == "right" {
				m.tab = (m.tab + 1) % tabCount
			} else {
				m.tab = (m.tab + tabCount - 1) % tabCount
			}
			m.knowledgeSel = 0
			return m, nil
		}

	case "up", "down":
		if m.hoodFocus && m.tab == tabKnowledge {
			n := len(m.ctrl.Stores().Knowledge())
			if n > 0 {
				if msg.String() == "down" {
					m.knowledgeSel = (m.knowledgeSel + 1) % n
				} else {
					m.knowledgeSel = (m.knowledgeSel + n - 1) % n
				}
			}
			return m, nil
		}

	case "ctrl+n":
		return m.signOut("")

	case "ctrl+e":
		m.ctrl.ShowAnalytics()
		m.analyticsLoading = true
		return m, m.fetchAnalytics()

	case "ctrl+d":
		if sess := m.ctrl.Session(); sess != nil && sess.Escalated {
			return m, m.fetchDesktop(sess.ID)
		}
		return m, nil

	case "ctrl+l":
		m.ctrl.ToggleLatencySim()
		return m, nil

	case "ctrl+g":
		m.ctrl.ToggleRegion()
		return m, nil

	case "esc":
		if m.ctrl.Alert() != "" {
			m.ctrl.DismissAlert()
			return m, nil
		}
		if m.hoodFocus {
			m.hoodFocus = false
			m.input.Focus()
		}
		return m, nil
	}

	if m.hoodFocus {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// hoodEnter activates the selected row of the focused hood tab. Only the
// knowledge tab has an action: open the source document with the chunk
// highlighted.
func (m model) hoodEnter() (tea.Model, tea.Cmd) {
	if m.tab != tabKnowledge {
		return m, nil
	}
	sources := m.ctrl.Stores().Knowledge()
	if m.knowledgeSel >= len(sources) {
		return m, nil
	}
	src := sources[m.knowledgeSel]

	if body, ok := m.cache.Get(src.SourceDoc); ok {
		m.openDoc(src.SourceDoc, body, src.Excerpt)
		return m, nil
	}
	m.doc = docState{open: true, loading: true, name: src.SourceDoc}
	return m, m.fetchDoc(src.SourceDoc, src.Excerpt)
}

func (m *model) openDoc(name, body, chunk string) {
	region, found := docview.Resolve(body, chunk)
	blocks := docview.Render(body, region, found)

	vp := viewport.New(m.docViewerWidth(), m.docViewerHeight())
	vp.SetContent(renderBlocks(blocks, m.docViewerWidth()))

	// Land the viewport near the highlight rather than the top.
	if found {
		vp.SetYOffset(highlightLine(blocks) - 2)
	}

	m.doc = docState{open: true, name: name, chunk: chunk, vp: vp}
}

func (m model) handleDocKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.doc = docState{}
		return m, nil
	}
	var cmd tea.Cmd
	m.doc.vp, cmd = m.doc.vp.Update(msg)
	return m, cmd
}

func (m model) handleDesktopKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := m.agentInput.Value()
		if text != "" {
			m.ctrl.AgentReply(text)
			m.agentInput.Reset()
		}
		return m, nil
	case "esc":
		m.ctrl.BackToChat()
		m.agentInput.Blur()
		m.input.Focus()
		return m, nil
	case "ctrl+e":
		m.ctrl.ShowAnalytics()
		m.analyticsLoading = true
		return m, m.fetchAnalytics()
	case "ctrl+n":
		return m.signOut("")
	}
	var cmd tea.Cmd
	m.agentInput, cmd = m.agentInput.Update(msg)
	return m, cmd
}

func (m model) handleAnalyticsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.ctrl.LeaveAnalytics()
		if m.ctrl.Screen() == session.ScreenAuth && m.form == nil {
			m.form = m.buildAuthForm()
			return m, m.form.Init()
		}
		return m, nil
	case "r":
		m.analyticsLoading = true
		return m, m.fetchAnalytics()
	}
	return m, nil
}

// signOut tears down the session, the push channel, and the document
// cache, then returns to the auth screen.
func (m model) signOut(status string) (tea.Model, tea.Cmd) {
	m.closeChannel()
	m.ctrl.ResetToAuth()
	m.cache.Clear()
	m.status = status
	m.hoodOpen = false
	m.hoodFocus = false
	m.tab = tabTrace
	m.knowledgeSel = 0
	m.analytics = nil
	m.doc = docState{}
	m.input.Reset()
	m.input.Blur()
	m.agentInput.Reset()
	m.agentInput.Blur()
	m.form = m.buildAuthForm()
	return m, m.form.Init()
}

func (m *model) closeChannel() {
	if m.adapter != nil {
		if err := m.adapter.Close(); err != nil {
			m.log.Debug("channel close", slog.String("error", err.Error()))
		}
		m.adapter = nil
	}
}

func (m *model) buildAuthForm() *huh.Form {
	options := make([]huh.Option[string], 0, len(m.members))
	for _, member := range m.members {
		label := fmt.Sprintf("%s — %s (%s)", member.Name, member.PolicyType, member.PolicyNumber)
		options = append(options, huh.NewOption(label, member.MemberID))
	}
	m.memberID = ""
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Sign in as").
				Description("Octank Insurance demo members").
				Options(options...).
				Value(&m.memberID),
		),
	)
}

func (m model) docViewerWidth() int {
	w := m.width - 8
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) docViewerHeight() int {
	h := m.height - 8
	if h < 5 {
		h = 5
	}
	return h
}
