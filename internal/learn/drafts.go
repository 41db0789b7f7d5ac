package learn

import "sync"

// Drafts maps card ids to answer text typed but not yet graded. A Drafts
// lives exactly as long as the session that owns it.
type Drafts struct {
	mu     sync.Mutex
	drafts map[string]string
}

func NewDrafts() *Drafts {
	return &Drafts{drafts: make(map[string]string)}
}

func (d *Drafts) Get(cardID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	text, ok := d.drafts[cardID]
	return text, ok
}

// Set stores text for cardID. Empty text removes the draft.
func (d *Drafts) Set(cardID, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if text == "" {
		delete(d.drafts, cardID)
		return
	}
	d.drafts[cardID] = text
}

func (d *Drafts) Clear(cardID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.drafts, cardID)
}

func (d *Drafts) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.drafts)
}
