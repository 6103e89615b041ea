package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"
)

var panicFilename = "panic_dump"

// PanicDumpDir is where DumpPanicInfo writes its files.  The working
// directory is used when empty.
var PanicDumpDir = ""

func MyRecover() {
	if err := recover(); err != nil {
		log.Errorf("Recovered from panic: %v", err)
		var buf [4096]byte
		n := runtime.Stack(buf[:], false)
		log.Errorf("Stack Trace ==>\n %s", string(buf[:n]))
		_ = DumpPanicInfo(fmt.Sprintf("%v", err) + "\n" + string(buf[:n]))
	}
}

func DumpPanicInfo(info string) error {
	currentTime := time.Now()
	fileSuffix := currentTime.Format("20060102150405") + "_" + strconv.FormatInt(currentTime.Unix(), 10)
	fileName := filepath.Join(PanicDumpDir, panicFilename+"_"+fileSuffix)
	log.Infof("Dumping panic info to %v...", fileName)
	err := os.WriteFile(fileName, []byte(info), 0666)
	if err != nil {
		log.Errorf("Unable to write panic file %v", fileName)
		return err
	}
	return nil
}
