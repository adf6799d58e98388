package importer

import "time"

// keySet hands out unique ordering keys derived from a record's date. A
// colliding key is bumped one second at a time, so records sharing a date
// keep their input order once sorted.
type keySet map[int64]struct{}

func (k keySet) assign(t time.Time) int64 {
	key := t.Unix()
	for {
		if _, taken := k[key]; !taken {
			break
		}
		key++
	}
	k[key] = struct{}{}
	return key
}
