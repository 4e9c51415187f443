package analytics

// Convenience loggers. Each is a thin argument-shaping wrapper over
// LogEvent.

// LogPageView records navigation to a page.
func (a *Aggregator) LogPageView(sess *Session, page string) error {
	return a.LogEvent(sess, Event{
		Action: "page_view",
		Value:  map[string]any{"page": page},
	})
}

// LogModuleUsage records use of a feature module.
func (a *Aggregator) LogModuleUsage(sess *Session, module, action string) error {
	return a.LogEvent(sess, Event{
		Module: module,
		Action: action,
	})
}

// LogTTSUsage records a text-to-speech playback of the given text length.
func (a *Aggregator) LogTTSUsage(sess *Session, textLen int) error {
	return a.LogEvent(sess, Event{
		Module: "tts",
		Action: "tts_playback",
		Value:  map[string]any{"textLength": textLen},
	})
}

// LogSageInteraction records one exchange with the conversational agent.
func (a *Aggregator) LogSageInteraction(sess *Session, kind string) error {
	return a.LogEvent(sess, Event{
		Module: "sage",
		Action: "sage_interaction",
		Value:  map[string]any{"kind": kind},
	})
}

// LogEmotionalSignal records a self-reported emotional tag.
func (a *Aggregator) LogEmotionalSignal(sess *Session, tag string) error {
	return a.LogEvent(sess, Event{
		Module: "journal",
		Action: "emotional_signal",
		Value:  map[string]any{"emotionalTag": tag},
	})
}
