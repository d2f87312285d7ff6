package xlog

// Common field keys.
const (
	FieldTimestamp = "@timestamp"
	FieldConn      = "conn"
	FieldProto     = "proto"
	FieldIface     = "iface"
	FieldDest      = "dest"
	FieldAddr      = "addr"
)
