//go:build !linux && !darwin

package arena

// WriteBack writes data at off. Without mmap the mapping is an in-memory copy
// and the dirty tracker flushes through this method.
func (f *File) WriteBack(off int64, data []byte) error {
	_, err := f.f.WriteAt(data, off)
	return err
}

// Sync commits the file contents to stable storage.
func (f *File) Sync() error {
	return f.f.Sync()
}
