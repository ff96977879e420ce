package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Binary serializers for the persisted record types. Hand-composed from
// mus-go primitives; field order is the wire format and must not change
// without a data migration.
var (
	IDMUS         = idSer{}
	MessageMUS    = messageSer{}
	SessionMUS    = sessionSer{}
	SourceMetaMUS = sourceMetaSer{}
	ChunkMUS      = chunkSer{}
	CacheEntryMUS = cacheEntrySer{}
	TicketMUS     = ticketSer{}
)

var (
	messagesMUS = ord.NewSliceSer[Message](MessageMUS)
	vectorMUS   = ord.NewSliceSer[float32](varint.Float32)
	sourcesMUS  = ord.NewSliceSer[SourceMeta](SourceMetaMUS)
)

// timeMUS encodes a time.Time as microseconds since the Unix epoch.
// Sub-microsecond precision and the monotonic clock reading are dropped.
var timeMUS = timeSer{}

type timeSer struct{}

func (timeSer) Marshal(v time.Time, bs []byte) int {
	return varint.Int64.Marshal(v.UnixMicro(), bs)
}

func (timeSer) Unmarshal(bs []byte) (time.Time, int, error) {
	us, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(us).UTC(), n, nil
}

func (timeSer) Size(v time.Time) int {
	return varint.Int64.Size(v.UnixMicro())
}

func (timeSer) Skip(bs []byte) (int, error) {
	return varint.Int64.Skip(bs)
}

type idSer struct{}

func (idSer) Marshal(v ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idSer) Unmarshal(bs []byte) (ID, int, error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

func (idSer) Size(v ID) int {
	return varint.Uint64.Size(uint64(v))
}

func (idSer) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

type messageSer struct{}

func (messageSer) Marshal(v Message, bs []byte) (n int) {
	n = varint.Int64.Marshal(int64(v.Role), bs)
	n += ord.String.Marshal(v.Content, bs[n:])
	n += timeMUS.Marshal(v.Timestamp, bs[n:])
	return n
}

func (messageSer) Unmarshal(bs []byte) (v Message, n int, err error) {
	role, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return v, n, err
	}
	v.Role = Role(role)

	var n1 int
	v.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}

	v.Timestamp, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return v, n, err
}

func (messageSer) Size(v Message) (size int) {
	size = varint.Int64.Size(int64(v.Role))
	size += ord.String.Size(v.Content)
	size += timeMUS.Size(v.Timestamp)
	return size
}

func (messageSer) Skip(bs []byte) (n int, err error) {
	n, err = varint.Int64.Skip(bs)
	if err != nil {
		return n, err
	}
	var n1 int
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return n, err
	}
	n1, err = timeMUS.Skip(bs[n:])
	return n + n1, err
}

type sessionSer struct{}

func (sessionSer) Marshal(v Session, bs []byte) (n int) {
	n = ord.String.Marshal(v.TenantID, bs)
	n += ord.String.Marshal(v.SessionID, bs[n:])
	n += ord.String.Marshal(v.CustomerID, bs[n:])
	n += timeMUS.Marshal(v.CreatedAt, bs[n:])
	n += timeMUS.Marshal(v.LastActivityAt, bs[n:])
	n += messagesMUS.Marshal(v.Messages, bs[n:])
	return n
}

func (sessionSer) Unmarshal(bs []byte) (v Session, n int, err error) {
	v.TenantID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return v, n, err
	}

	var n1 int
	v.SessionID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}

	v.CustomerID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}

	v.CreatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}

	v.LastActivityAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}

	v.Messages, n1, err = messagesMUS.Unmarshal(bs[n:])
	n += n1
	return v, n, err
}

func (sessionSer) Size(v Session) (size int) {
	size = ord.String.Size(v.TenantID)
	size += ord.String.Size(v.SessionID)
	size += ord.String.Size(v.CustomerID)
	size += timeMUS.Size(v.CreatedAt)
	size += timeMUS.Size(v.LastActivityAt)
	size += messagesMUS.Size(v.Messages)
	return size
}

func (sessionSer) Skip(bs []byte) (n int, err error) {
	var n1 int
	for i := 0; i < 3; i++ {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return n, err
		}
	}
	for i := 0; i < 2; i++ {
		n1, err = timeMUS.Skip(bs[n:])
		n += n1
		if err != nil {
			return n, err
		}
	}
	n1, err = messagesMUS.Skip(bs[n:])
	return n + n1, err
}

type sourceMetaSer struct{}

func (sourceMetaSer) Marshal(v SourceMeta, bs []byte) (n int) {
	n = ord.String.Marshal(v.Title, bs)
	n += ord.String.Marshal(v.Path, bs[n:])
	n += ord.String.Marshal(v.Category, bs[n:])
	return n
}

func (sourceMetaSer) Unmarshal(bs []byte) (v SourceMeta, n int, err error) {
	v.Title, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return v, n, err
	}

	var n1 int
	v.Path, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}

	v.Category, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return v, n, err
}

func (sourceMetaSer) Size(v SourceMeta) (size int) {
	size = ord.String.Size(v.Title)
	size += ord.String.Size(v.Path)
	size += ord.String.Size(v.Category)
	return size
}

func (sourceMetaSer) Skip(bs []byte) (n int, err error) {
	var n1 int
	for i := 0; i < 3; i++ {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

type chunkSer struct{}

func (chunkSer) Marshal(v Chunk, bs []byte) (n int) {
	n = ord.String.Marshal(v.TenantID, bs)
	n += IDMUS.Marshal(v.ID, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += vectorMUS.Marshal(v.Vector, bs[n:])
	n += SourceMetaMUS.Marshal(v.Source, bs[n:])
	n += timeMUS.Marshal(v.InsertedAt, bs[n:])
	return n
}

func (chunkSer) Unmarshal(bs []byte) (v Chunk, n int, err error) {
	v.TenantID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return v, n, err
	}

	var n1 int
	v.ID, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}

	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}

	v.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}

	v.Source, n1, err = SourceMetaMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}

	v.InsertedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return v, n, err
}

func (chunkSer) Size(v Chunk) (size int) {
	size = ord.String.Size(v.TenantID)
	size += IDMUS.Size(v.ID)
	size += ord.String.Size(v.Text)
	size += vectorMUS.Size(v.Vector)
	size += SourceMetaMUS.Size(v.Source)
	size += timeMUS.Size(v.InsertedAt)
	return size
}

func (chunkSer) Skip(bs []byte) (n int, err error) {
	n, err = ord.String.Skip(bs)
	if err != nil {
		return n, err
	}
	var n1 int
	n1, err = IDMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return n, err
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return n, err
	}
	n1, err = vectorMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return n, err
	}
	n1, err = SourceMetaMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return n, err
	}
	n1, err = timeMUS.Skip(bs[n:])
	return n + n1, err
}

type cacheEntrySer struct{}

func (cacheEntrySer) Marshal(v CacheEntry, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Fingerprint, bs)
	n += ord.String.Marshal(v.TenantID, bs[n:])
	n += ord.String.Marshal(v.Answer, bs[n:])
	n += sourcesMUS.Marshal(v.Sources, bs[n:])
	n += timeMUS.Marshal(v.CreatedAt, bs[n:])
	n += varint.Int64.Marshal(int64(v.TTL), bs[n:])
	return n
}

func (cacheEntrySer) Unmarshal(bs []byte) (v CacheEntry, n int, err error) {
	v.Fingerprint, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return v, n, err
	}

	var n1 int
	v.TenantID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}

	v.Answer, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}

	v.Sources, n1, err = sourcesMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}

	v.CreatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}

	var ttl int64
	ttl, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	v.TTL = time.Duration(ttl)
	return v, n, err
}

func (cacheEntrySer) Size(v CacheEntry) (size int) {
	size = IDMUS.Size(v.Fingerprint)
	size += ord.String.Size(v.TenantID)
	size += ord.String.Size(v.Answer)
	size += sourcesMUS.Size(v.Sources)
	size += timeMUS.Size(v.CreatedAt)
	size += varint.Int64.Size(int64(v.TTL))
	return size
}

func (cacheEntrySer) Skip(bs []byte) (n int, err error) {
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return n, err
	}
	var n1 int
	for i := 0; i < 2; i++ {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return n, err
		}
	}
	n1, err = sourcesMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return n, err
	}
	n1, err = timeMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return n, err
	}
	n1, err = varint.Int64.Skip(bs[n:])
	return n + n1, err
}

type ticketSer struct{}

func (ticketSer) Marshal(v Ticket, bs []byte) (n int) {
	n = IDMUS.Marshal(v.ID, bs)
	n += ord.String.Marshal(v.TenantID, bs[n:])
	n += ord.String.Marshal(v.SessionID, bs[n:])
	n += ord.String.Marshal(v.Reason, bs[n:])
	n += varint.Int64.Marshal(int64(v.Priority), bs[n:])
	n += varint.Int64.Marshal(int64(v.Status), bs[n:])
	n += ord.String.Marshal(v.Department, bs[n:])
	n += ord.String.Marshal(v.AssignedTo, bs[n:])
	n += ord.String.Marshal(v.TriggerMessage, bs[n:])
	n += messagesMUS.Marshal(v.Transcript, bs[n:])
	n += timeMUS.Marshal(v.CreatedAt, bs[n:])
	n += timeMUS.Marshal(v.UpdatedAt, bs[n:])
	return n
}

func (ticketSer) Unmarshal(bs []byte) (v Ticket, n int, err error) {
	v.ID, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return v, n, err
	}

	var n1 int
	v.TenantID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}

	v.SessionID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}

	v.Reason, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}

	var priority int64
	priority, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.Priority = TicketPriority(priority)

	var status int64
	status, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.Status = TicketStatus(status)

	v.Department, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}

	v.AssignedTo, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}

	v.TriggerMessage, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}

	v.Transcript, n1, err = messagesMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}

	v.CreatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}

	v.UpdatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return v, n, err
}

func (ticketSer) Size(v Ticket) (size int) {
	size = IDMUS.Size(v.ID)
	size += ord.String.Size(v.TenantID)
	size += ord.String.Size(v.SessionID)
	size += ord.String.Size(v.Reason)
	size += varint.Int64.Size(int64(v.Priority))
	size += varint.Int64.Size(int64(v.Status))
	size += ord.String.Size(v.Department)
	size += ord.String.Size(v.AssignedTo)
	size += ord.String.Size(v.TriggerMessage)
	size += messagesMUS.Size(v.Transcript)
	size += timeMUS.Size(v.CreatedAt)
	size += timeMUS.Size(v.UpdatedAt)
	return size
}

func (ticketSer) Skip(bs []byte) (n int, err error) {
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return n, err
	}
	var n1 int
	for i := 0; i < 3; i++ {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return n, err
		}
	}
	for i := 0; i < 2; i++ {
		n1, err = varint.Int64.Skip(bs[n:])
		n += n1
		if err != nil {
			return n, err
		}
	}
	for i := 0; i < 3; i++ {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return n, err
		}
	}
	n1, err = messagesMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return n, err
	}
	for i := 0; i < 2; i++ {
		n1, err = timeMUS.Skip(bs[n:])
		n += n1
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
