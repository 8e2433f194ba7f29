package service

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// minAudioFileSize 小于该大小的文件视为空或损坏
const minAudioFileSize = 128

// validateAudioFile 按文件头识别 WAV/MP3/FLAC/OGG
func validateAudioFile(audioPath string) error {
	fileInfo, err := os.Stat(audioPath)
	if err != nil {
		return fmt.Errorf("音频文件不存在: %w", err)
	}
	if fileInfo.Size() < minAudioFileSize {
		return fmt.Errorf("音频文件过小 (%d bytes)，可能为空或损坏", fileInfo.Size())
	}

	file, err := os.Open(audioPath)
	if err != nil {
		return fmt.Errorf("无法打开音频文件: %w", err)
	}
	defer file.Close()

	header := make([]byte, 12)
	if _, err := io.ReadFull(file, header); err != nil {
		return fmt.Errorf("无法读取音频文件头部")
	}

	switch {
	case bytes.HasPrefix(header, []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WAVE")):
		return nil
	case bytes.HasPrefix(header, []byte("ID3")):
		return nil
	case header[0] == 0xFF && header[1]&0xE0 == 0xE0: // MP3/AAC 帧同步字
		return nil
	case bytes.HasPrefix(header, []byte("fLaC")), bytes.HasPrefix(header, []byte("OggS")):
		return nil
	}
	return fmt.Errorf("音频文件格式无效: %s", audioPath)
}
