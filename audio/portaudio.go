package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = 512

type portAudioBackend struct{}

// NewPortAudio initializes PortAudio and returns a Backend over it.
func NewPortAudio() (Backend, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &portAudioBackend{}, nil
}

func (b *portAudioBackend) DefaultInputDevice() (Device, error) {
	info, err := portaudio.DefaultInputDevice()
	if err != nil {
		return Device{}, fmt.Errorf("failed to get default input device: %w", err)
	}
	return deviceFromInfo(info, true), nil
}

func (b *portAudioBackend) Devices() ([]Device, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}
	def, _ := portaudio.DefaultInputDevice()

	result := make([]Device, 0, len(infos))
	for _, d := range infos {
		if d.MaxInputChannels > 0 {
			result = append(result, deviceFromInfo(d, d == def))
		}
	}
	return result, nil
}

func (b *portAudioBackend) OpenStream(dev Device, onBlock BlockFunc, onError ErrorFunc) (Stream, Format, error) {
	info, err := findInfo(dev)
	if err != nil {
		return nil, Format{}, err
	}

	// Capture at the device's native rate; mono or stereo, whichever the
	// device supports. Higher channel counts are not worth carrying through
	// the pipeline for a capture source.
	channels := info.MaxInputChannels
	if channels > 2 {
		channels = 2
	}
	src := Format{
		SampleRate: int(info.DefaultSampleRate),
		Channels:   channels,
		Sample:     Float32,
	}

	buffer := make([]float32, framesPerBuffer*channels)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: channels,
			Latency:  info.DefaultLowInputLatency,
		},
		SampleRate:      info.DefaultSampleRate,
		FramesPerBuffer: framesPerBuffer,
	}, buffer)
	if err != nil {
		return nil, Format{}, fmt.Errorf("failed to open audio stream: %w", err)
	}

	return &portAudioStream{
		stream:  stream,
		buffer:  buffer,
		onBlock: onBlock,
		onError: onError,
		done:    make(chan struct{}),
	}, src, nil
}

func (b *portAudioBackend) Close() error {
	return portaudio.Terminate()
}

func findInfo(dev Device) (*portaudio.DeviceInfo, error) {
	if dev.ID == "" {
		info, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("failed to get default input device: %w", err)
		}
		return info, nil
	}
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}
	for _, d := range infos {
		if d.Name == dev.ID {
			return d, nil
		}
	}
	return nil, fmt.Errorf("device not found: %s", dev.ID)
}

func deviceFromInfo(info *portaudio.DeviceInfo, def bool) Device {
	return Device{
		ID:          info.Name,
		Name:        info.Name,
		Default:     def,
		Channels:    info.MaxInputChannels,
		DefaultRate: int(info.DefaultSampleRate),
	}
}

type portAudioStream struct {
	stream  *portaudio.Stream
	buffer  []float32
	onBlock BlockFunc
	onError ErrorFunc

	done     chan struct{}
	wg       sync.WaitGroup
	started  bool
	stopOnce sync.Once
}

func (p *portAudioStream) Start() error {
	if err := p.stream.Start(); err != nil {
		return fmt.Errorf("failed to start audio stream: %w", err)
	}
	p.started = true
	p.wg.Add(1)
	go p.readLoop()
	return nil
}

// readLoop runs on its own goroutine and is the capture execution context:
// it blocks on the device clock and hands each filled buffer to onBlock.
func (p *portAudioStream) readLoop() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		default:
		}

		if err := p.stream.Read(); err != nil {
			select {
			case <-p.done:
				// Read failures during shutdown are expected.
			default:
				p.onError(fmt.Errorf("stream read failed: %w", err))
			}
			return
		}

		select {
		case <-p.done:
			return
		default:
		}

		samples := make([]float32, len(p.buffer))
		copy(samples, p.buffer)
		p.onBlock(samples)
	}
}

func (p *portAudioStream) Stop() error {
	p.stopOnce.Do(func() { close(p.done) })
	if !p.started {
		return nil
	}
	p.wg.Wait()
	p.started = false
	return p.stream.Stop()
}

func (p *portAudioStream) Close() error {
	return p.stream.Close()
}
