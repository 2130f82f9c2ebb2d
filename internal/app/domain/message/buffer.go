package message

import "slices"

// DefaultLimit - размер буфера канала вне паузы.
const DefaultLimit = 200

// Buffer - упорядоченный ограниченный список сообщений одного канала.
// Не потокобезопасен: принадлежит циклу событий сессии.
type Buffer struct {
	limit  int
	items  []ChatMessage
	paused bool
	even   bool
}

func NewBuffer(limit int) *Buffer {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Buffer{limit: limit}
}

// Append проставляет IsEven (чередуется с каждым добавлением) и возвращает сохранённую запись.
func (b *Buffer) Append(msg ChatMessage) ChatMessage {
	b.even = !b.even
	msg.IsEven = b.even

	b.items = append(b.items, msg)
	if !b.paused {
		b.trim()
	}
	return msg
}

// SetPaused: на паузе буфер растёт без ограничений, при снятии паузы обрезается до лимита.
func (b *Buffer) SetPaused(paused bool) {
	b.paused = paused
	if !paused {
		b.trim()
	}
}

func (b *Buffer) Paused() bool { return b.paused }

func (b *Buffer) Clear() {
	b.items = nil
	b.even = false
}

func (b *Buffer) Len() int { return len(b.items) }

// Messages возвращает копию содержимого от старых к новым.
func (b *Buffer) Messages() []ChatMessage {
	return slices.Clone(b.items)
}

func (b *Buffer) trim() {
	if over := len(b.items) - b.limit; over > 0 {
		b.items = slices.Delete(b.items, 0, over)
	}
}
