// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/elliotnunn/MacShim/internal/metafile"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/cobra"
)

var texturesDir string

var metafileCmd = &cobra.Command{
	Use:   "3dmf",
	Short: "Inspect QuickDraw 3D metafiles",
}

var metafileDumpCmd = &cobra.Command{
	Use:   "dump FILE",
	Short: "List the groups, meshes and textures",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mf, err := parseMetafile(args[0])
		if err != nil {
			return err
		}
		dumpMetafile(cmd.OutOrStdout(), mf)
		return nil
	},
}

var metafileTexturesCmd = &cobra.Command{
	Use:   "textures FILE",
	Short: "Save every texture as a BMP file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mf, err := parseMetafile(args[0])
		if err != nil {
			return err
		}
		if err := os.MkdirAll(texturesDir, 0o755); err != nil {
			return err
		}
		base := changeSuffix(filepath.Base(args[0]), ".xz")
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		for i, tex := range mf.Textures {
			if tex.Pixels == nil {
				continue
			}
			name := filepath.Join(texturesDir, fmt.Sprintf("%s-%d.bmp", stem, i))
			if err := saveBMP(name, tex); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func parseMetafile(path string) (*metafile.Metafile, error) {
	in, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	mf, err := metafile.Parse(in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return mf, nil
}

func saveBMP(name string, tex *metafile.Texture) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := metafile.WriteBMP(f, tex); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func hexColor(c mgl32.Vec4) string {
	return colorful.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2])}.Clamped().Hex()
}

func dumpMetafile(w io.Writer, mf *metafile.Metafile) {
	for gi, group := range mf.Groups {
		fmt.Fprintf(w, "group %d\n", gi)
		for _, mi := range group {
			m := mf.Meshes[mi]
			fmt.Fprintf(w, "\tmesh %d: %d triangles, %d points", mi, len(m.Triangles), len(m.Points))
			if m.HasDiffuse {
				fmt.Fprintf(w, ", diffuse %s", hexColor(m.Diffuse))
			}
			if m.HasTransparency {
				fmt.Fprintf(w, ", alpha %.3g", m.Diffuse[3])
			}
			if m.UVs != nil {
				fmt.Fprint(w, ", UVs")
			}
			if m.VertexNormals != nil {
				fmt.Fprint(w, ", normals")
			}
			if m.VertexColors != nil {
				fmt.Fprintf(w, ", colors from %s", hexColor(m.VertexColors[0]))
			}
			if m.TextureID >= 0 {
				fmt.Fprintf(w, ", texture %d", m.TextureID)
			}
			fmt.Fprintln(w)
		}
	}
	for i, tex := range mf.Textures {
		fmt.Fprintf(w, "texture %d: %dx%d pixel type %d, wrap %d/%d\n",
			i, tex.Width, tex.Height, tex.PixelType, tex.WrapU, tex.WrapV)
	}
}

func init() {
	metafileTexturesCmd.Flags().StringVarP(&texturesDir, "output", "o", ".", "directory for the BMP files")
	metafileCmd.AddCommand(metafileDumpCmd, metafileTexturesCmd)
	rootCmd.AddCommand(metafileCmd)
}
