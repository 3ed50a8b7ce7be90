// Package transcript reconciles streaming speech-recognition events into an
// ordered, deduplicated transcript.
//
// Rules:
//   - A partial event replaces the speaker's open line in place, or appends
//     a new open line if the speaker has none. Only the most recent partial
//     per speaker is retained.
//   - A final event removes the speaker's open line (wherever it sits) and
//     appends one finalized line at the tail. A once-partial utterance is
//     never double-counted.
//   - At most one open line exists per speaker at any time.
//   - Downstream consumers see finalized lines only; open partials are a
//     live/UI concern.
package transcript

import (
	"ai-interview-orchestrator/internal/models"
)

// Reconciler merges TranscriptEvent values, in arrival order, into a line
// sequence. One reconciler per session, driven from a single goroutine.
type Reconciler struct {
	lines []models.TranscriptLine
	// Index of each speaker's open (non-finalized) line in lines, or -1.
	open      map[models.Speaker]int
	processed uint64
}

// NewReconciler creates an empty reconciler.
func NewReconciler() *Reconciler {
	return &Reconciler{
		open: map[models.Speaker]int{
			models.SpeakerCandidate:   -1,
			models.SpeakerInterviewer: -1,
		},
	}
}

// Consume applies one event to the transcript. Events with unknown speaker
// tags are ignored; nothing else is ever dropped silently.
func (r *Reconciler) Consume(ev models.TranscriptEvent) {
	if !ev.Speaker.Known() {
		return
	}
	r.processed++

	switch ev.Finality {
	case models.FinalityPartial:
		r.consumePartial(ev)
	case models.FinalityFinal:
		r.consumeFinal(ev)
	}
}

func (r *Reconciler) consumePartial(ev models.TranscriptEvent) {
	if idx := r.open[ev.Speaker]; idx >= 0 {
		// Newer partial supersedes the open line in place. Older partial
		// text is discarded, never archived.
		r.lines[idx].Text = ev.Text
		return
	}
	r.lines = append(r.lines, models.TranscriptLine{
		Speaker: ev.Speaker,
		Text:    ev.Text,
	})
	r.open[ev.Speaker] = len(r.lines) - 1
}

func (r *Reconciler) consumeFinal(ev models.TranscriptEvent) {
	if idx := r.open[ev.Speaker]; idx >= 0 {
		r.removeAt(idx)
		r.open[ev.Speaker] = -1
	}
	r.lines = append(r.lines, models.TranscriptLine{
		Speaker:   ev.Speaker,
		Text:      ev.Text,
		Finalized: true,
	})
}

// removeAt drops the line at idx, shifting open-line indexes that follow it.
func (r *Reconciler) removeAt(idx int) {
	r.lines = append(r.lines[:idx], r.lines[idx+1:]...)
	for speaker, openIdx := range r.open {
		if openIdx > idx {
			r.open[speaker] = openIdx - 1
		}
	}
}

// Lines returns a copy of the full line sequence, open partials included.
// Intended for live display.
func (r *Reconciler) Lines() []models.TranscriptLine {
	out := make([]models.TranscriptLine, len(r.lines))
	copy(out, r.lines)
	return out
}

// Finalized returns the finalized subsequence of the transcript. This is
// the only view that is persisted or sent to scoring.
func (r *Reconciler) Finalized() []models.TranscriptLine {
	out := make([]models.TranscriptLine, 0, len(r.lines))
	for _, l := range r.lines {
		if l.Finalized {
			out = append(out, l)
		}
	}
	return out
}

// FinalizedCount returns the number of finalized lines.
func (r *Reconciler) FinalizedCount() int {
	n := 0
	for _, l := range r.lines {
		if l.Finalized {
			n++
		}
	}
	return n
}

// Processed returns the number of events consumed (unknown speakers excluded).
func (r *Reconciler) Processed() uint64 {
	return r.processed
}
