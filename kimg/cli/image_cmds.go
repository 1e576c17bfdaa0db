/**
 * Licensed to the Apache Software Foundation (ASF) under one
 * or more contributor license agreements.  See the NOTICE file
 * distributed with this work for additional information
 * regarding copyright ownership.  The ASF licenses this file
 * to you under the Apache License, Version 2.0 (the
 * "License"); you may not use this file except in compliance
 * with the License.  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package cli

import (
	"github.com/spf13/cobra"

	"github.com/kendryte-community/kimg/artifact/image"
	"github.com/kendryte-community/kimg/artifact/objcopy"
	"github.com/kendryte-community/kimg/artifact/sec"
	"github.com/kendryte-community/kimg/util"
)

func newImageJob(cmd *cobra.Command, ext string, elf bool) *image.Image {
	if OptInFilename == "" {
		KimgUsage(cmd, util.NewKimgError("Must specify an input file"))
	}

	outFilename, err := CalcOutFilename(OptInFilename, ext)
	if err != nil {
		KimgUsage(cmd, err)
	}

	enc, err := sec.ParseEncryption(OptEncryption)
	if err != nil {
		KimgUsage(cmd, err)
	}

	img, err := image.NewImage(OptInFilename, outFilename)
	if err != nil {
		KimgUsage(nil, err)
	}
	img.Encryption = enc
	img.Elf = elf

	if err := img.SetVersion(OptImageVersion); err != nil {
		KimgUsage(cmd, err)
	}

	return img
}

func runGenImageCmd(cmd *cobra.Command, args []string) {
	img := newImageJob(cmd, ".img", false)

	if err := img.Generate(); err != nil {
		KimgUsage(nil, err)
	}

	util.StatusMessage(util.VERBOSITY_DEFAULT, "%s\n", img.TargetImg)
}

func runElfToImageCmd(cmd *cobra.Command, args []string) {
	img := newImageJob(cmd, ".img", true)

	if err := img.Generate(); err != nil {
		KimgUsage(nil, err)
	}

	util.StatusMessage(util.VERBOSITY_DEFAULT, "%s\n", img.TargetImg)
}

func runBinExtractCmd(cmd *cobra.Command, args []string) {
	if OptInFilename == "" {
		KimgUsage(cmd, util.NewKimgError("Must specify an input file"))
	}

	outFilename, err := CalcOutFilename(OptInFilename, ".bin")
	if err != nil {
		KimgUsage(cmd, err)
	}

	if err := objcopy.ExtractFile(OptInFilename, outFilename); err != nil {
		KimgUsage(nil, err)
	}

	util.StatusMessage(util.VERBOSITY_DEFAULT, "%s\n", outFilename)
}

func addInOutFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&OptInFilename, "input", "i", "",
		"Input file path")
	cmd.PersistentFlags().StringVarP(&OptOutFilename, "output", "o", "",
		"Output file path; defaults to the input path with its "+
			"extension replaced")
}

func addProtectFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&OptEncryption, "encryption", "e",
		"none", "Encryption type (none, sm4, or aes)")
	cmd.PersistentFlags().StringVar(&OptImageVersion, "image-version",
		image.IMAGE_VERSION_DEFAULT, "Image version (major.minor.rev)")
}

func AddImageCommands(cmd *cobra.Command) {
	genImageHelpText := "Wrap a raw firmware binary in the flashable " +
		"image format the K230 boot ROM expects.\n\nThe payload can be " +
		"left in the clear with a SHA-256 digest (none), encrypted with " +
		"SM4-CBC and signed with SM2 (sm4), or encrypted with " +
		"AES-256-GCM and signed with RSA-2048 (aes)."
	genImageHelpEx := "  kimg gen-image -i app.bin\n" +
		"  kimg gen-image -i app.bin -o app.img -e sm4"
	genImageCmd := &cobra.Command{
		Use:     "gen-image",
		Short:   "Wrap a raw binary in a flashable image",
		Long:    genImageHelpText,
		Example: genImageHelpEx,
		Run:     runGenImageCmd,
	}

	addInOutFlags(genImageCmd)
	addProtectFlags(genImageCmd)

	cmd.AddCommand(genImageCmd)

	binExtractHelpText := "Convert an ELF executable to a raw binary.  " +
		"Allocatable sections are packed in file order, like " +
		"objcopy -O binary; .bss is not emitted."
	binExtractHelpEx := "  kimg bin-extract -i app.elf -o app.bin"
	binExtractCmd := &cobra.Command{
		Use:     "bin-extract",
		Short:   "Convert an ELF executable to a raw binary",
		Long:    binExtractHelpText,
		Example: binExtractHelpEx,
		Run:     runBinExtractCmd,
	}

	addInOutFlags(binExtractCmd)

	cmd.AddCommand(binExtractCmd)

	elfToImageHelpText := "Convert an ELF executable directly into a " +
		"flashable image.  Equivalent to bin-extract followed by " +
		"gen-image."
	elfToImageHelpEx := "  kimg elf-to-image -i app.elf -e aes"
	elfToImageCmd := &cobra.Command{
		Use:     "elf-to-image",
		Short:   "Convert an ELF executable into a flashable image",
		Long:    elfToImageHelpText,
		Example: elfToImageHelpEx,
		Run:     runElfToImageCmd,
	}

	addInOutFlags(elfToImageCmd)
	addProtectFlags(elfToImageCmd)

	cmd.AddCommand(elfToImageCmd)
}
