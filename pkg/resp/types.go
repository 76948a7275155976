package resp

const (
	CRLF = "\r\n"
)

const (
	RespStatus    = byte('+') // +<string>\r\n
	RespError     = byte('-') // -<string>\r\n
	RespString    = byte('$') // $<length>\r\n<bytes>\r\n
	RespInt       = byte(':') // :<number>\r\n
	RespBool      = byte('#') // true: #t\r\n false: #f\r\n
	RespNil       = byte('_') // _\r\n
	RespBlobError = byte('!') // !<length>\r\n<bytes>\r\n
	RespMap       = byte('%') // %<len>\r\n(key)(value)... insertion order kept
	RespSet       = byte('~') // ~<len>\r\n... (same layout as Array)
	RespArray     = byte('*') // *<len>\r\n...
)

var terminator = []byte(CRLF)
