package notification

// manager implements NotificationManager
type manager struct {
	channels        []NotificationChannel
	commandExecutor CommandExecutor
	platform        string
}

// NewManager creates a NotificationManager with one channel per enabled output
func NewManager(cfg *Config, opts ...Option) NotificationManager {
	m := &manager{}

	for _, opt := range opts {
		opt(m)
	}

	if cfg.OSNotification {
		var osOpts []Option
		if m.commandExecutor != nil {
			osOpts = append(osOpts, WithCommandExecutor(m.commandExecutor))
		}
		if m.platform != "" {
			osOpts = append(osOpts, WithPlatform(m.platform))
		}
		m.channels = append(m.channels, NewOSNotificationChannel(osOpts...))
	}

	if cfg.LogNotification.Enabled {
		m.channels = append(m.channels, NewLogNotificationChannel(&cfg.LogNotification))
	}

	return m
}

// Send dispatches notification to all channels. Every channel is tried; the
// last failure is returned.
func (m *manager) Send(n Notification) error {
	var lastErr error
	for _, ch := range m.channels {
		if err := ch.Send(n); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Close cleans up resources
func (m *manager) Close() error {
	var lastErr error
	for _, ch := range m.channels {
		if err := ch.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// ChannelCount returns the number of active channels
func (m *manager) ChannelCount() int {
	return len(m.channels)
}
