package trail

// VertexShader transforms trail points by proj * view and passes a flat color.
const VertexShader = `#version 100
attribute vec3 position;
uniform   vec3 color;
varying   vec3 vColor;
uniform   mat4 proj;
uniform   mat4 view;
void main() {
    gl_Position = proj * view * vec4(position, 1.0);
    vColor = color;
}`

// FragmentShader writes the flat trail color.
const FragmentShader = `#version 100
#ifdef GL_FRAGMENT_PRECISION_HIGH
   precision highp float;
#else
   precision mediump float;
#endif
varying vec3 vColor;
void main() {
    gl_FragColor = vec4(vColor, 1.0);
}`
