package billing

var (
	CRC16             = crc16
	DecodePaddleEvent = decodePaddleEvent
)
