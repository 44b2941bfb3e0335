package logrusadapter

type nilWriteCloser struct {
}

func (n2 nilWriteCloser) Write(p []byte) (n int, err error) {
	return len(p), nil
}

func (n2 nilWriteCloser) Close() error {
	return nil
}
