package wire

import (
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	fieldRequestOperation protowire.Number = 1
	fieldRequestKey       protowire.Number = 2
	fieldRequestValue     protowire.Number = 3
)

// RequestPayload is the application payload carried inside a request
// frame. Key and Value are nil when the field was not set by the
// caller, which is distinct from a present-but-empty field — Put
// distinguishes "no key given" (MissingKey) from "zero-length key".
type RequestPayload struct {
	Operation Operation
	Key       []byte
	Value     []byte
}

// Encode serializes p. Nil Key/Value are omitted entirely so a
// decoder can tell "absent" from "present, empty".
func (p RequestPayload) Encode() []byte {
	b := protowire.AppendTag(nil, fieldRequestOperation, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.Operation))
	if p.Key != nil {
		b = protowire.AppendTag(b, fieldRequestKey, protowire.BytesType)
		b = protowire.AppendBytes(b, p.Key)
	}
	if p.Value != nil {
		b = protowire.AppendTag(b, fieldRequestValue, protowire.BytesType)
		b = protowire.AppendBytes(b, p.Value)
	}
	return b
}

// DecodeRequestPayload parses a serialized RequestPayload.
func DecodeRequestPayload(b []byte) (RequestPayload, error) {
	var p RequestPayload
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return RequestPayload{}, ErrInvalidData
		}
		b = b[n:]

		switch num {
		case fieldRequestOperation:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return RequestPayload{}, ErrInvalidData
			}
			p.Operation = Operation(v)
			b = b[n:]

		case fieldRequestKey:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return RequestPayload{}, ErrInvalidData
			}
			p.Key = append([]byte{}, v...)
			b = b[n:]

		case fieldRequestValue:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return RequestPayload{}, ErrInvalidData
			}
			p.Value = append([]byte{}, v...)
			b = b[n:]

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return RequestPayload{}, ErrInvalidData
			}
			b = b[n:]
		}
	}
	return p, nil
}

const (
	fieldReplyStatus   protowire.Number = 1
	fieldReplyValue    protowire.Number = 2
	fieldReplyPid      protowire.Number = 3
	fieldReplyNodeInfo protowire.Number = 4

	fieldNodeInfoPosition protowire.Number = 1
	fieldNodeInfoAddress  protowire.Number = 2
)

// NodeInfo identifies a ring member by its position and dial address,
// used by GetSuccessor/GetNearestPrecedingNodeToKey replies.
type NodeInfo struct {
	NodePosition uint32
	NodeAddress  string
}

func (n NodeInfo) encode() []byte {
	b := protowire.AppendTag(nil, fieldNodeInfoPosition, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(n.NodePosition))
	b = protowire.AppendTag(b, fieldNodeInfoAddress, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte(n.NodeAddress))
	return b
}

func decodeNodeInfo(b []byte) (NodeInfo, error) {
	var n NodeInfo
	for len(b) > 0 {
		num, typ, tn := protowire.ConsumeTag(b)
		if tn < 0 {
			return NodeInfo{}, ErrInvalidData
		}
		b = b[tn:]
		switch num {
		case fieldNodeInfoPosition:
			v, vn := protowire.ConsumeVarint(b)
			if vn < 0 {
				return NodeInfo{}, ErrInvalidData
			}
			n.NodePosition = uint32(v)
			b = b[vn:]
		case fieldNodeInfoAddress:
			v, vn := protowire.ConsumeBytes(b)
			if vn < 0 {
				return NodeInfo{}, ErrInvalidData
			}
			n.NodeAddress = string(v)
			b = b[vn:]
		default:
			vn := protowire.ConsumeFieldValue(num, typ, b)
			if vn < 0 {
				return NodeInfo{}, ErrInvalidData
			}
			b = b[vn:]
		}
	}
	return n, nil
}

// ReplyPayload is the application payload carried inside a reply
// frame. Value, Pid, and NodeInfo are optional and nil/zero-valued
// when not applicable to the status being reported.
type ReplyPayload struct {
	Status   Status
	Value    []byte
	Pid      *uint32
	NodeInfo *NodeInfo
}

// Encode serializes r, omitting unset optional fields.
func (r ReplyPayload) Encode() []byte {
	b := protowire.AppendTag(nil, fieldReplyStatus, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Status))
	if r.Value != nil {
		b = protowire.AppendTag(b, fieldReplyValue, protowire.BytesType)
		b = protowire.AppendBytes(b, r.Value)
	}
	if r.Pid != nil {
		b = protowire.AppendTag(b, fieldReplyPid, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(*r.Pid))
	}
	if r.NodeInfo != nil {
		b = protowire.AppendTag(b, fieldReplyNodeInfo, protowire.BytesType)
		b = protowire.AppendBytes(b, r.NodeInfo.encode())
	}
	return b
}

// DecodeReplyPayload parses a serialized ReplyPayload.
func DecodeReplyPayload(b []byte) (ReplyPayload, error) {
	var r ReplyPayload
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return ReplyPayload{}, ErrInvalidData
		}
		b = b[n:]

		switch num {
		case fieldReplyStatus:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return ReplyPayload{}, ErrInvalidData
			}
			r.Status = Status(v)
			b = b[n:]

		case fieldReplyValue:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return ReplyPayload{}, ErrInvalidData
			}
			r.Value = append([]byte(nil), v...)
			b = b[n:]

		case fieldReplyPid:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return ReplyPayload{}, ErrInvalidData
			}
			pid := uint32(v)
			r.Pid = &pid
			b = b[n:]

		case fieldReplyNodeInfo:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return ReplyPayload{}, ErrInvalidData
			}
			info, err := decodeNodeInfo(v)
			if err != nil {
				return ReplyPayload{}, err
			}
			r.NodeInfo = &info
			b = b[n:]

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return ReplyPayload{}, ErrInvalidData
			}
			b = b[n:]
		}
	}
	return r, nil
}
