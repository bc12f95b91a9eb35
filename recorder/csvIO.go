package recorder

import (
	"encoding/csv"
	"os"

	"github.com/pkg/errors"
)

// initializeCSV 创建文件并写入表头，已存在的文件会被覆盖
func initializeCSV(filename string, header []string) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "create csv")
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "close csv")
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return errors.Wrapf(err, "write header to %s", filename)
	}
	writer.Flush()
	return errors.Wrapf(writer.Error(), "flush %s", filename)
}

// appendToCSV 在文件末尾追加多行数据
func appendToCSV(filename string, data [][]string) (err error) {
	file, err := os.OpenFile(filename, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "open csv")
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "close csv")
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(data); err != nil {
		return errors.Wrapf(err, "write data to %s", filename)
	}
	return nil
}
