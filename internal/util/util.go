/*
Package util includes utility/helper functions that may be useful to other modules.
*/
package util

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"io/fs"
	"math/big"
	"os"
	"os/user"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ExpandUser expands '~' to user's home directory, if found, otherwise returns original path
func ExpandUser(path string) string {
	usr, err := user.Current()
	if err != nil {
		return path
	}
	if path == "~" {
		return usr.HomeDir
	} else if strings.HasPrefix(path, "~"+string(os.PathSeparator)) {
		return filepath.Join(usr.HomeDir, path[2:])
	}
	return path
}

// AbsPath returns absolute path after expanding '~' to user's home dir
func AbsPath(path string) (string, error) {
	return filepath.Abs(ExpandUser(path))
}

// FileExists checks if a file exists at the given path.
// It returns a boolean indicating whether the file exists, and an error if the
// path refers to a non-regular file, e.g., a directory.
func FileExists(path string) (exists bool, err error) {
	var fileInfo fs.FileInfo
	fileInfo, err = os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			exists = false
			err = nil
			return
		}
		return
	}
	if !fileInfo.Mode().IsRegular() {
		err = fmt.Errorf("%s not a file", path)
		return
	}
	exists = true
	return
}

// DirectoryExists checks if the specified directory exists.
// It returns a boolean indicating whether the directory exists and an error if the
// path refers to anything other than a directory, e.g., a regular file.
func DirectoryExists(path string) (exists bool, err error) {
	var fileInfo fs.FileInfo
	fileInfo, err = os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			exists = false
			err = nil
			return
		}
		return
	}
	if !fileInfo.Mode().IsDir() {
		err = fmt.Errorf("%s not a directory", path)
		return
	}
	exists = true
	return
}

// IsValidHex checks if a string is a valid hex string
// Valid hex strings are non-empty, optionally prefixed with "0x" or "0X",
// and contain only valid hex characters (0-9, a-f, A-F).
func IsValidHex(hexStr string) bool {
	hexStr = trimHexPrefix(hexStr)
	if hexStr == "" {
		return false
	}
	_, ok := new(big.Int).SetString(hexStr, 16)
	return ok && !strings.ContainsAny(hexStr, "+-_")
}

func trimHexPrefix(hexStr string) string {
	if strings.HasPrefix(hexStr, "0x") || strings.HasPrefix(hexStr, "0X") {
		return hexStr[2:]
	}
	return hexStr
}

// HexMaskToIntList converts a hex bit mask, as accepted by taskset, into the
// ascending list of set bit positions. For example, "0x15" is converted to
// [0, 2, 4]. Masks may be wider than 64 bits.
func HexMaskToIntList(hexStr string) ([]int, error) {
	if !IsValidHex(hexStr) {
		return nil, fmt.Errorf("invalid hex string: %s", hexStr)
	}
	mask, _ := new(big.Int).SetString(trimHexPrefix(hexStr), 16)
	var result []int
	for bit := 0; bit < mask.BitLen(); bit++ {
		if mask.Bit(bit) == 1 {
			result = append(result, bit)
		}
	}
	return result, nil
}

// IntRangeToIntList expands a string representing a range of integers into a slice of integers.
// The function returns a slice of integers representing the expanded range.
// For example, "1-3" will be expanded to [1, 2, 3]. And, "5" will be expanded to [5].
// If the input string is not in a valid format, it returns an error.
func IntRangeToIntList(input string) ([]int, error) {
	// check input format matches "start-end", or "start"
	re := regexp.MustCompile(`^(\d+)(?:-(\d+))?$`)
	matches := re.FindStringSubmatch(input)
	if len(matches) == 0 {
		err := fmt.Errorf("invalid input format: %s", input)
		return nil, err
	}
	start, err := strconv.Atoi(matches[1])
	if err != nil {
		return nil, fmt.Errorf("invalid start value: %s", matches[1])
	}
	// if end value is empty, return a slice with the start value
	if matches[2] == "" {
		return []int{start}, nil
	}
	end, err := strconv.Atoi(matches[2])
	if err != nil {
		return nil, fmt.Errorf("invalid end value: %s", matches[2])
	}
	if start > end {
		return nil, fmt.Errorf("start value is greater than end value: %d > %d", start, end)
	}
	result := make([]int, end-start+1)
	for i := start; i <= end; i++ {
		result[i-start] = i
	}
	return result, nil
}

// SelectiveIntRangeToIntList expands a string representing a selective range of integers into a slice of integers.
// For example "1-3,7,9,11-13" will be expanded to [1, 2, 3, 7, 9, 11, 12, 13].
// An error is returned if the input string is not in a valid format.
func SelectiveIntRangeToIntList(input string) ([]int, error) {
	var result []int
	for r := range strings.SplitSeq(input, ",") {
		ints, err := IntRangeToIntList(r)
		if err != nil {
			return nil, err
		}
		result = append(result, ints...)
	}
	return result, nil
}

// CPUListToIntList accepts either a hex mask ("0xf0") or a selective range
// list ("0-3,6") of processor indices.
func CPUListToIntList(input string) ([]int, error) {
	if strings.HasPrefix(input, "0x") || strings.HasPrefix(input, "0X") {
		return HexMaskToIntList(input)
	}
	return SelectiveIntRangeToIntList(input)
}

// IntSliceToStringSlice converts a slice of integers to a slice of strings.
func IntSliceToStringSlice(ints []int) []string {
	strs := make([]string, len(ints))
	for i, v := range ints {
		strs[i] = strconv.Itoa(v)
	}
	return strs
}
