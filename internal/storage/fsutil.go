package storage

import "os"

// writeFileAtomic writes data through a sibling tmp file and renames it
// into place, so readers never observe a torn page or profile record.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"

	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err = file.Write(data); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
