// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xfile: 日志文件路径净化、父目录创建、实例日志路径解析
package util
