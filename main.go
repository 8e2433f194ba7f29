/*
word2video
为英文单词生成带插图、双语语音和字幕的讲解视频
*/
package main

import (
	"github.com/difyz9/word2video/cmd"
)

// 版本信息，在编译时通过ldflags注入
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, buildTime, gitCommit)
	cmd.Execute()
}
