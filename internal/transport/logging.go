package transport

import (
	applog "spectrum/internal/log"
)

// LoggingTransport writes a one-line summary of every frame at debug level.
type LoggingTransport struct{}

func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

func (lt *LoggingTransport) Send(data any) error {
	f, ok := data.(BandFrame)
	if !ok {
		applog.Debugf("LoggingTransport: %T %+v", data, data)
		return nil
	}
	loudest, level := -1, float32(0)
	for i, v := range f.Bars {
		if v > level {
			loudest, level = i, v
		}
	}
	applog.Debugf("LoggingTransport: frame %d, %d bands, loudest band %d at %.1f dB",
		f.Seq, len(f.Bars), loudest, level)
	return nil
}

func (lt *LoggingTransport) Close() error {
	applog.Debugf("LoggingTransport: Close called")
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
