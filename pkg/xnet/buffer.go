package xnet

import "sync"

// Read buffers shared by all stream sockets of the process.
var readBufferPool = &sync.Pool{
	New: func() interface{} {
		bs := make([]byte, readBufferSize)
		return &bs
	},
}

func getReadBuffer() *[]byte {
	return readBufferPool.Get().(*[]byte)
}

func putReadBuffer(bs *[]byte) {
	readBufferPool.Put(bs)
}
