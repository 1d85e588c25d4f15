// Copyright (C) 2025 Octank Labs (oss@octanklabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/octanklabs/glassbox/pkg/docview"
	"github.com/octanklabs/glassbox/pkg/hood"
	"github.com/octanklabs/glassbox/pkg/session"
	"github.com/octanklabs/glassbox/pkg/trace"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	userStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	agentStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135"))
	bannerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("214")).Padding(0, 1)
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	tabActive     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).Underline(true)
	tabInactive   = subtleStyle
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	highlightDoc  = lipgloss.NewStyle().Background(lipgloss.Color("58"))
	headingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
	badgeRead     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	badgeWrite    = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
)

func (m model) View() string {
	if m.doc.open {
		return m.viewDoc()
	}

	switch m.ctrl.Screen() {
	case session.ScreenAuth:
		return m.viewAuth()
	case session.ScreenChat:
		return m.viewChat()
	case session.ScreenAgentDesktop:
		return m.viewDesktop()
	case session.ScreenAnalytics:
		return m.viewAnalytics()
	}
	return ""
}

// =============================================================================
// Auth
// =============================================================================

func (m model) viewAuth() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Octank Insurance — Virtual Agent Demo"))
	b.WriteString("\n\n")

	switch {
	case m.authErr != "":
		b.WriteString(errorStyle.Render(m.authErr))
		b.WriteString("\n\n")
	case m.status != "":
		b.WriteString(warnStyle.Render(m.status))
		b.WriteString("\n\n")
	}

	if m.form != nil {
		b.WriteString(m.form.View())
	} else if m.authErr == "" {
		b.WriteString(m.spin.View() + " Loading member directory...")
	}

	b.WriteString("\n")
	b.WriteString(subtleStyle.Render("enter select · ctrl+c quit"))
	return b.String()
}

// =============================================================================
// Chat
// =============================================================================

func (m model) viewChat() string {
	var b strings.Builder
	b.WriteString(m.chatHeader())
	b.WriteString("\n")

	chatWidth := m.width
	if m.hoodOpen && m.width > 80 {
		chatWidth = m.width * 3 / 5
	}

	transcript := m.renderTranscript(chatWidth - 2)

	if m.hoodOpen && m.width > 80 {
		hoodWidth := m.width - chatWidth - 4
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(chatWidth).Render(transcript),
			panelStyle.Width(hoodWidth).Render(m.renderHood(hoodWidth)),
		))
	} else {
		b.WriteString(transcript)
		if m.hoodOpen {
			b.WriteString("\n")
			b.WriteString(panelStyle.Width(m.width - 4).Render(m.renderHood(m.width - 6)))
		}
	}
	b.WriteString("\n")

	if alert := m.ctrl.Alert(); alert != "" {
		b.WriteString(errorStyle.Render(alert) + subtleStyle.Render("  (esc to dismiss)"))
		b.WriteString("\n")
	}
	if sess := m.ctrl.Session(); sess != nil && sess.Escalated && !m.ctrl.Processing() {
		b.WriteString(bannerStyle.Render("Escalated: " + sess.EscalationReason + " — connecting you to an agent (ctrl+d to open desktop)"))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(subtleStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render("enter send · ctrl+u under the hood · tab focus panel · ctrl+e analytics · ctrl+n new session · ctrl+c quit"))
	return b.String()
}

func (m model) chatHeader() string {
	sess := m.ctrl.Session()
	if sess == nil {
		return titleStyle.Render("Octank Insurance")
	}
	framework := "HIPAA"
	if m.ctrl.RegionEU() {
		framework = "GDPR"
	}
	sim := "off"
	if m.ctrl.LatencySim() {
		sim = "on"
	}
	left := titleStyle.Render("Octank Insurance") + "  " +
		sess.Member.Name + " · " + sess.Member.PolicyType + " · " + sess.Member.PolicyNumber
	stats := fmt.Sprintf("session %s · turn %d", shortID(sess.ID), sess.TurnCount)
	if sess.CurrentAgent != "" {
		stats += " · " + sess.CurrentAgent
	}
	right := subtleStyle.Render(fmt.Sprintf("%s · region:%s sim:%s review<%.2f",
		stats, framework, sim, m.ctrl.ReviewThreshold()))
	return left + "  " + right
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (m model) renderTranscript(width int) string {
	if width < 20 {
		width = 20
	}
	wrap := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	for _, msg := range m.ctrl.Messages() {
		switch msg.Role {
		case session.RoleUser:
			b.WriteString(userStyle.Render(msg.Sender))
		case session.RoleAgent:
			b.WriteString(agentStyle.Render(msg.Sender + " (human agent)"))
		default:
			b.WriteString(agentStyle.Render(msg.Sender))
		}
		b.WriteString("\n")
		b.WriteString(wrap.Render(msg.Text))
		b.WriteString("\n")
		if len(msg.Tools) > 0 {
			b.WriteString(subtleStyle.Render("tools: " + strings.Join(msg.Tools, ", ")))
			b.WriteString("\n")
		}
		if len(msg.Sources) > 0 {
			b.WriteString(subtleStyle.Render("sources: " + strings.Join(msg.Sources, ", ")))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.ctrl.Processing() {
		b.WriteString(m.spin.View() + " " + subtleStyle.Render(m.ctrl.FillerPhrase()))
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// Under the hood
// =============================================================================

func (m model) renderHood(width int) string {
	var b strings.Builder

	var tabs []string
	for t := hoodTab(0); t < tabCount; t++ {
		style := tabInactive
		if t == m.tab {
			style = tabActive
		}
		tabs = append(tabs, style.Render(t.title()))
	}
	b.WriteString(strings.Join(tabs, " │ "))
	if m.hoodFocus {
		b.WriteString("  " + subtleStyle.Render("←/→ tabs"))
	}
	b.WriteString("\n\n")

	switch m.tab {
	case tabTrace:
		b.WriteString(m.renderTrace(width))
	case tabTools:
		b.WriteString(m.renderTools(width))
	case tabKnowledge:
		b.WriteString(m.renderKnowledge(width))
	case tabReview:
		b.WriteString(m.renderReview(width))
	case tabAudit:
		b.WriteString(m.renderAudit(width))
	case tabCompliance:
		b.WriteString(m.renderCompliance(width))
	}
	return b.String()
}

func (m model) renderTrace(width int) string {
	steps := m.ctrl.Timeline().Steps()
	summary := m.ctrl.Timeline().Summary()
	if len(steps) == 0 && summary == nil {
		return subtleStyle.Render("No trace yet. Send a message to see the orchestration pipeline.")
	}

	var b strings.Builder
	for _, s := range steps {
		icon := okStyle.Render("✓")
		if s.Status == trace.StatusBlocked {
			icon = errorStyle.Render("✗")
		}
		line := fmt.Sprintf("%s %s", icon, s.Name)
		if s.DurationMS > 0 {
			line += subtleStyle.Render(fmt.Sprintf("  %dms", s.DurationMS))
		}
		b.WriteString(line)
		b.WriteString("\n")
		if detail := stepDetails(s.Details); detail != "" {
			b.WriteString(subtleStyle.Render("   " + truncate(detail, width-4)))
			b.WriteString("\n")
		}
	}

	if summary != nil {
		b.WriteString("\n")
		tier := string(summary.Tier)
		var tierStyled string
		switch summary.Tier {
		case trace.TierHigh:
			tierStyled = okStyle.Render(tier)
		case trace.TierMedium:
			tierStyled = warnStyle.Render(tier)
		default:
			tierStyled = errorStyle.Render(tier)
		}
		b.WriteString(fmt.Sprintf("Total %dms · confidence %s (%s)",
			summary.LatencyMS, fmtPercent(summary.Confidence), tierStyled))
		b.WriteString("\n")
	}

	if w := m.ctrl.Waterfall(); w != nil {
		b.WriteString("\n")
		b.WriteString(renderWaterfall(*w, width))
	}
	return b.String()
}

func renderWaterfall(w trace.Waterfall, width int) string {
	barSpace := width - 24
	if barSpace < 10 {
		barSpace = 10
	}

	var style lipgloss.Style
	switch w.Level {
	case trace.LevelDanger:
		style = errorStyle
	case trace.LevelWarn:
		style = warnStyle
	default:
		style = okStyle
	}

	var b strings.Builder
	for _, leg := range w.Legs {
		n := 0
		if w.TotalMS > 0 {
			n = leg.MS * barSpace / w.TotalMS
		}
		if n < 1 && leg.MS > 0 {
			n = 1
		}
		label := leg.Label
		if leg.Simulated {
			label += " (sim)"
		}
		b.WriteString(fmt.Sprintf("%-16s %s %dms\n", label, style.Render(strings.Repeat("▆", n)), leg.MS))
	}
	b.WriteString(fmt.Sprintf("%-16s %dms total\n", "", w.TotalMS))
	return b.String()
}

func (m model) renderTools(width int) string {
	tools := m.ctrl.Stores().Tools()
	if len(tools) == 0 {
		return subtleStyle.Render("No tool calls this session.")
	}
	var b strings.Builder
	for _, t := range tools {
		badge := badgeRead.Render("READ")
		if hood.AccessFor(t.Name) == hood.AccessWrite {
			badge = badgeWrite.Render("WRITE")
		}
		b.WriteString(fmt.Sprintf("%s %s  %dms\n", badge, t.Name, t.DurationMS))
		if len(t.Input) > 0 {
			b.WriteString(subtleStyle.Render("  in:  " + truncate(compactMap(t.Input), width-8)))
			b.WriteString("\n")
		}
		if len(t.Output) > 0 {
			b.WriteString(subtleStyle.Render("  out: " + truncate(compactMap(t.Output), width-8)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m model) renderKnowledge(width int) string {
	sources := m.ctrl.Stores().Knowledge()
	if len(sources) == 0 {
		return subtleStyle.Render("No knowledge retrieved this session.")
	}
	var b strings.Builder
	for i, src := range sources {
		cursor := "  "
		line := fmt.Sprintf("%s  %s", src.SourceDoc, fmtPercent(src.Relevance))
		if src.Heading != "" {
			line += subtleStyle.Render(" · " + src.Heading)
		}
		if m.hoodFocus && i == m.knowledgeSel {
			cursor = "> "
			line = selectedStyle.Render(line)
		}
		b.WriteString(cursor + line + "\n")
		b.WriteString(subtleStyle.Render("  " + truncate(src.Excerpt, width-4)))
		b.WriteString("\n")
	}
	if m.hoodFocus {
		b.WriteString("\n" + subtleStyle.Render("↑/↓ select · enter open document"))
	}
	return b.String()
}

func (m model) renderReview(width int) string {
	items := m.ctrl.Stores().Review()
	if len(items) == 0 {
		return subtleStyle.Render("Review queue is empty.")
	}
	var b strings.Builder
	for _, item := range items {
		reason := "low confidence"
		if item.Reason == hood.ReasonPIIInInput {
			reason = "PII in input"
		}
		b.WriteString(fmt.Sprintf("turn %d · %s · %s · %s\n",
			item.Turn, warnStyle.Render(reason), fmtPercent(item.Confidence), item.Intent))
		b.WriteString(subtleStyle.Render("  " + truncate(item.Preview, width-4)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) renderAudit(width int) string {
	entries := m.ctrl.Stores().Audit()
	if len(entries) == 0 {
		return subtleStyle.Render("No audited turns yet.")
	}
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("turn %d · %s · %s · %s · %dms\n",
			e.Turn, e.Timestamp.Format("15:04:05"), e.Intent, e.Agent, e.LatencyMS))
		if len(e.Tools) > 0 {
			b.WriteString(subtleStyle.Render("  tools: " + truncate(strings.Join(e.Tools, ", "), width-10)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m model) renderCompliance(width int) string {
	framework := "HIPAA"
	if m.ctrl.RegionEU() {
		framework = "GDPR"
	}
	flags := m.ctrl.Stores().Flags()

	var b strings.Builder
	b.WriteString(subtleStyle.Render("Framework: "+framework) + "\n")
	b.WriteString("Sentiment: " + m.ctrl.Stores().Sentiment().Label() + "\n\n")

	if len(flags) == 0 {
		b.WriteString(okStyle.Render("No compliance flags this session."))
		return b.String()
	}
	for _, f := range flags {
		b.WriteString(warnStyle.Render("⚑ "+string(f.Type)) + "\n")
		b.WriteString(subtleStyle.Render("  " + truncate(f.Detail, width-4)))
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// Agent desktop
// =============================================================================

func (m model) viewDesktop() string {
	d := m.ctrl.Desktop()
	if d == nil {
		return m.spin.View() + " Loading agent desktop..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Agent Desktop — " + d.Member.Name))
	b.WriteString("  " + subtleStyle.Render("handle time "+fmtClock(m.ctrl.HandleSeconds())))
	b.WriteString("\n\n")

	b.WriteString(headingStyle.Render("AI Summary") + "\n")
	b.WriteString(lipgloss.NewStyle().Width(m.width - 4).Render(d.AISummary))
	b.WriteString("\n\n")

	meta := d.SessionMeta
	b.WriteString(subtleStyle.Render(fmt.Sprintf(
		"turns %d · intent %s · agent %s · tools used %d · context assembled in %dms",
		meta.TurnCount, meta.CurrentIntent, meta.CurrentAgent, meta.ToolsUsedCount, meta.AssemblyMS)))
	b.WriteString("\n\n")

	if d.Escalation.Escalated {
		b.WriteString(bannerStyle.Render("Escalation: " + d.Escalation.Reason))
		b.WriteString("\n\n")
	}

	if len(d.SentimentHistory) > 0 {
		b.WriteString(headingStyle.Render("Sentiment") + " " +
			strings.Join(d.SentimentHistory, " → ") + " · now " + d.CurrentSentiment + "\n\n")
	}

	if len(d.ActionsTaken) > 0 {
		b.WriteString(headingStyle.Render("Actions Taken") + "\n")
		for _, a := range d.ActionsTaken {
			line := fmt.Sprintf("  turn %d: %s", a.Turn, a.Description)
			if a.Tool != "" {
				line += subtleStyle.Render(" (" + a.Tool + ")")
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}

	if len(d.OpenQuestions) > 0 {
		b.WriteString(headingStyle.Render("Open Questions") + "\n")
		for _, q := range d.OpenQuestions {
			b.WriteString("  ? " + q + "\n")
		}
		b.WriteString("\n")
	}

	if len(d.SuggestedActions) > 0 {
		b.WriteString(headingStyle.Render("Suggested Next Steps") + "\n")
		for _, s := range d.SuggestedActions {
			b.WriteString("  → " + s + "\n")
		}
		b.WriteString("\n")
	}

	if len(d.KnowledgeProactive) > 0 {
		b.WriteString(headingStyle.Render("Proactive Knowledge") + "\n")
		for _, k := range d.KnowledgeProactive {
			b.WriteString(fmt.Sprintf("  %s · %s\n", k.SourceDoc, truncate(k.ChunkText, m.width-12)))
		}
		b.WriteString("\n")
	}

	b.WriteString(headingStyle.Render("Conversation") + "\n")
	for _, msg := range d.Conversation {
		b.WriteString(subtleStyle.Render(msg.Role+": ") + truncate(msg.Content, m.width-12) + "\n")
	}
	for _, msg := range m.ctrl.Messages() {
		if msg.Role == session.RoleAgent {
			b.WriteString(agentStyle.Render("agent: ") + msg.Text + "\n")
		}
	}
	b.WriteString("\n")

	b.WriteString(m.agentInput.View())
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render("enter reply · esc back to chat · ctrl+e analytics · ctrl+n new session"))
	return b.String()
}

// =============================================================================
// Analytics
// =============================================================================

func (m model) viewAnalytics() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Contact Center Analytics"))
	b.WriteString("\n\n")

	switch {
	case m.analyticsLoading:
		b.WriteString(m.spin.View() + " Loading analytics...")
		return b.String()
	case m.analyticsErr != "":
		b.WriteString(errorStyle.Render(m.analyticsErr))
		b.WriteString("\n\n" + subtleStyle.Render("r retry · esc back"))
		return b.String()
	case m.analytics == nil:
		return b.String()
	}

	a := m.analytics
	b.WriteString(fmt.Sprintf(
		"conversations %d · containment %s · escalation %s · FCR %s · CSAT %.1f · avg handle %s\n\n",
		a.TotalConversations, fmtPercent(a.ContainmentRate), fmtPercent(a.EscalationRate),
		fmtPercent(a.FirstContactResolution), a.CSATScore, fmtClock(a.AvgHandleTimeSeconds)))

	b.WriteString(headingStyle.Render("Intent Distribution") + "\n")
	maxIntent := 0
	for _, row := range a.IntentDistribution {
		if row.Count > maxIntent {
			maxIntent = row.Count
		}
	}
	for _, row := range a.IntentDistribution {
		b.WriteString(barLine(row.Intent, row.Count, maxIntent, m.width))
	}
	b.WriteString("\n")

	b.WriteString(headingStyle.Render("Sentiment") + "\n")
	for _, row := range a.SentimentDistribution {
		b.WriteString(fmt.Sprintf("  %-12s %s\n", row.Sentiment, fmtPercent(row.Pct/100)))
	}
	b.WriteString("\n")

	if len(a.EscalationReasons) > 0 {
		b.WriteString(headingStyle.Render("Escalation Reasons") + "\n")
		maxReason := 0
		for _, row := range a.EscalationReasons {
			if row.Count > maxReason {
				maxReason = row.Count
			}
		}
		for _, row := range a.EscalationReasons {
			b.WriteString(barLine(row.Reason, row.Count, maxReason, m.width))
		}
		b.WriteString("\n")
	}

	if len(a.ToolCallFrequency) > 0 {
		b.WriteString(headingStyle.Render("Tool Calls") + "\n")
		maxTool := 0
		for _, row := range a.ToolCallFrequency {
			if row.Count > maxTool {
				maxTool = row.Count
			}
		}
		for _, row := range a.ToolCallFrequency {
			b.WriteString(barLine(row.Tool, row.Count, maxTool, m.width))
		}
		b.WriteString("\n")
	}

	if len(a.DailyVolume) > 0 {
		b.WriteString(headingStyle.Render("Daily Volume") + "\n")
		maxDay := 0
		for _, row := range a.DailyVolume {
			if row.Count > maxDay {
				maxDay = row.Count
			}
		}
		for _, row := range a.DailyVolume {
			b.WriteString(barLine(row.Day, row.Count, maxDay, m.width))
		}
		b.WriteString("\n")
	}

	if len(a.AvgHandleTimeByIntent) > 0 {
		b.WriteString(headingStyle.Render("Avg Handle Time by Intent") + "\n")
		for _, row := range a.AvgHandleTimeByIntent {
			b.WriteString(fmt.Sprintf("  %-24s %s\n", row.Intent, fmtClock(row.Seconds)))
		}
		b.WriteString("\n")
	}

	b.WriteString(subtleStyle.Render("r refresh · esc back · ctrl+c quit"))
	return b.String()
}

func barLine(label string, count, max, width int) string {
	space := width - 30
	if space < 10 {
		space = 10
	}
	n := 0
	if max > 0 {
		n = count * space / max
	}
	return fmt.Sprintf("  %-20s %s %d\n", truncate(label, 20), okStyle.Render(strings.Repeat("█", n)), count)
}

// =============================================================================
// Document viewer
// =============================================================================

func (m model) viewDoc() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Document: " + m.doc.name))
	b.WriteString("\n\n")
	if m.doc.loading {
		b.WriteString(m.spin.View() + " Loading document...")
	} else {
		b.WriteString(m.doc.vp.View())
	}
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render("↑/↓ scroll · esc close"))
	return b.String()
}

// renderBlocks lays out document blocks for the viewport, applying the
// chunk highlight where present.
func renderBlocks(blocks []docview.Block, width int) string {
	wrap := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	for _, blk := range blocks {
		var line string
		switch blk.Kind {
		case docview.BlockBlank:
			b.WriteString("\n")
			continue
		case docview.BlockHeading:
			line = headingStyle.Render(strings.Repeat("#", blk.Level) + " " + blk.Text)
		case docview.BlockListItem:
			marker := "• "
			if blk.Ordered {
				marker = "· "
			}
			line = "  " + marker + blk.Text
		default:
			line = blk.Text
		}
		if blk.Highlight {
			line = highlightDoc.Render(line)
		}
		b.WriteString(wrap.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

// highlightLine returns the index of the first highlighted block, for
// scrolling the viewer to the passage.
func highlightLine(blocks []docview.Block) int {
	for i, blk := range blocks {
		if blk.Highlight {
			return i
		}
	}
	return 0
}

// =============================================================================
// Formatting helpers
// =============================================================================

func fmtPercent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

func fmtClock(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func truncate(s string, n int) string {
	if n < 4 {
		n = 4
	}
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// compactMap renders a tool payload map as "k=v" pairs in stable order.
func compactMap(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, m[k]))
	}
	return strings.Join(parts, " ")
}

// stepDetails flattens a trace step's detail map for a one-line render.
func stepDetails(details map[string]any) string {
	if len(details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := details[k]
		if f, ok := v.(float64); ok && f > 0 && f <= 1 {
			parts = append(parts, fmt.Sprintf("%s: %s", k, fmtPercent(f)))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v", k, v))
	}
	return strings.Join(parts, " · ")
}
