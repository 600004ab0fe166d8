package chat

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/clipmind/internal/application"
	"github.com/bnema/clipmind/internal/domain"
	"github.com/bnema/clipmind/internal/ports"
	"github.com/charmbracelet/lipgloss"
)

const barWidth = 12

type RenderOptions struct {
	// MaxAttempts sizes the generation attempts bar; zero hides it.
	MaxAttempts int
	// Verbose adds the plan and every agent invocation under each turn.
	Verbose bool
}

func RenderReply(reply application.Reply, opts RenderOptions) (string, error) {
	return render(func(s styles) string {
		return replyView(reply.Turn, opts, s)
	})
}

func RenderSession(session domain.Session, opts RenderOptions) (string, error) {
	return render(func(s styles) string {
		return sessionView(session, opts, s)
	})
}

func RenderSessionList(summaries []ports.SessionSummary, now time.Time) (string, error) {
	return render(func(s styles) string {
		return listView(summaries, now, s)
	})
}

func replyView(turn domain.Turn, opts RenderOptions, s styles) string {
	lines := []string{s.body.Render(turn.Response)}

	if turn.Document != nil {
		lines = append(lines, s.success.Render(fmt.Sprintf("%s %s (%s)", strings.ToUpper(string(turn.Document.Format)), turn.Document.Path, formatSize(turn.Document.Size))))
	}
	if turn.Failure != domain.FailureNone {
		lines = append(lines, s.warning.Render(fmt.Sprintf("[%s]", turn.Failure)))
	}
	if turn.GenerationAttempts > 0 && opts.MaxAttempts > 0 {
		lines = append(lines, attemptsLine(turn.GenerationAttempts, opts.MaxAttempts, s))
	}
	if opts.Verbose {
		lines = append(lines, traceLines(turn, s)...)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func sessionView(session domain.Session, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render(fmt.Sprintf("Session %s", session.ID)),
		s.header.Render(fmt.Sprintf("video: %s  turns: %d", videoLabel(session.Context.Video), len(session.Turns))),
	}
	if kinds := session.Context.Kinds(); len(kinds) > 0 {
		labels := make([]string, 0, len(kinds))
		for _, kind := range kinds {
			labels = append(labels, string(kind))
		}
		lines = append(lines, s.meta.Render("artifacts: "+strings.Join(labels, ", ")))
	}
	if detections := session.Context.Detections(); len(detections) > 0 {
		for _, detection := range detections {
			lines = append(lines, confidenceLine(detection, s))
		}
	}

	if len(session.Turns) == 0 {
		lines = append(lines, s.empty.Render("No turns yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, turn := range session.Turns {
		lines = append(lines, s.section.Render(turnView(turn, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func turnView(turn domain.Turn, opts RenderOptions, s styles) string {
	parts := []string{
		s.human.Render("Human:") + " " + turn.Utterance,
		s.assistant.Render("AI:") + " " + replyView(turn, opts, s),
		s.meta.Render(fmt.Sprintf("%s  %s  %s", turn.CreatedAt.Format(time.RFC3339), turn.Intent.String(), turn.Outcome)),
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func listView(summaries []ports.SessionSummary, now time.Time, s styles) string {
	lines := []string{
		s.title.Render("Sessions"),
		s.header.Render(fmt.Sprintf("sessions: %d", len(summaries))),
	}
	if len(summaries) == 0 {
		lines = append(lines, s.empty.Render("No sessions yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, summary := range summaries {
		lines = append(lines, fmt.Sprintf("%s  %s  %s",
			s.human.Render(string(summary.ID)),
			s.body.Render(fmt.Sprintf("%d turns, %s", summary.TurnCount, videoLabel(summary.Video))),
			s.meta.Render(formatAge(summary.UpdatedAt, now)),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func traceLines(turn domain.Turn, s styles) []string {
	lines := make([]string, 0, len(turn.Plan)+len(turn.Invocations))
	for _, step := range turn.Plan {
		status := "run"
		if step.Reused {
			status = "cached"
		}
		lines = append(lines, s.meta.Render(fmt.Sprintf("plan: %s (%s)", step.Capability, status)))
	}
	for _, invocation := range turn.Invocations {
		outcome := "ok"
		if !invocation.Success {
			outcome = string(invocation.Failure)
		}
		lines = append(lines, s.meta.Render(fmt.Sprintf("call: %s #%d %s %s", invocation.Capability, invocation.Attempt, outcome, invocation.Duration.Round(time.Millisecond))))
	}

	return lines
}

func attemptsLine(attempts, maxAttempts int, s styles) string {
	percent := 100 * float64(attempts) / float64(maxAttempts)
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.meta.Render("attempts:"),
		" ",
		renderProgressBar(percent, barWidth, s),
		" ",
		s.meta.Render(fmt.Sprintf("%d/%d", attempts, maxAttempts)),
	)
}

func confidenceLine(detection domain.Detection, s styles) string {
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.body.Render(fmt.Sprintf("%-12s", detection.Label)),
		" ",
		renderProgressBar(detection.Confidence*100, barWidth, s),
		" ",
		s.meta.Render(fmt.Sprintf("%3.0f%% frame %d", detection.Confidence*100, detection.FrameIndex)),
	)
}

func renderProgressBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(percent) / 100.0))
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func videoLabel(video domain.VideoRef) string {
	if !video.IsSet() {
		return "none"
	}

	return string(video)
}

func formatSize(size int64) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}

func formatAge(updated, now time.Time) string {
	if updated.IsZero() {
		return "never"
	}
	if now.IsZero() || now.Before(updated) {
		return updated.Format(time.RFC3339)
	}

	elapsed := now.Sub(updated)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(elapsed.Hours()/24))
	}
}
