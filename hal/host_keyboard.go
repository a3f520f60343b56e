package hal

type hostKeyboard struct {
	ch chan KeyEvent
}

func newHostKeyboard() *hostKeyboard {
	return &hostKeyboard{ch: make(chan KeyEvent, 64)}
}

func (k *hostKeyboard) Events() <-chan KeyEvent { return k.ch }

// emit queues ev, dropping it when the application is not keeping up.
func (k *hostKeyboard) emit(ev KeyEvent) {
	select {
	case k.ch <- ev:
	default:
	}
}

func (k *hostKeyboard) key(code KeyCode, press bool) { k.emit(KeyEvent{Code: code, Press: press}) }
func (k *hostKeyboard) text(r rune)                  { k.emit(KeyEvent{Press: true, Rune: r}) }
